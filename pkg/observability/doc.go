/*
Package observability exposes the dialog engine to Prometheus.

Metrics registers counters for dialog starts, completions, retries, back
navigations, route fallbacks and callback errors, plus a latency histogram
for inbound events. Hooks binds the counters to the engine's lifecycle hooks;
Chain combines them with other hooks, such as the structured logging ones
returned by LogHooks.
*/
package observability

/*
Package route encodes and decodes the opaque route tokens carried by buttons,
and keeps the per-user navigation stack built from them.

# Token Shapes

	"5"              static screen 5
	"5:2"            static screen 5 with argument 2
	"-1"             generic back button of static screens
	"8:1:0:10"       dialog 1, sequence 0, item 10 (route 8)
	"8:1:0:10:100"   same position, option 100 selected
	"8:-1:1:0:10"    back sentinel for dialog 1, sequence 0, item 10

Tokens round-trip through an external channel and may be stale or replayed,
so Parse never fails: anything it cannot read becomes the default screen.
*/
package route

package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Kind classifies a decoded route token.
type Kind uint8

const (
	// KindScreen is a static screen id, optionally followed by screen arguments.
	KindScreen Kind = iota
	// KindForward is a DDID addressing an item (and optionally an option) of a dialog.
	KindForward
	// KindBack is the back sentinel emitted by the engine's back button.
	KindBack
	// KindStaticBack is the bare back token for static screens.
	KindStaticBack
)

func (k Kind) String() string {
	switch k {
	case KindScreen:
		return "screen"
	case KindForward:
		return "forward"
	case KindBack:
		return "back"
	case KindStaticBack:
		return "static_back"
	default:
		return "unknown"
	}
}

const (
	separator = ":"

	// BackMarker occupies the second segment of a back sentinel.
	BackMarker = -1

	// StaticBack is the token of the generic back button on static screens.
	StaticBack = "-1"
)

// DDID is the composite address of a dialog position.
type DDID struct {
	RouteID    int
	DialogID   int
	SequenceID int
	ItemID     int
	OptionID   *int
}

// Forward encodes "{route}:{dialog}:{sequence}:{item}[:{option}]".
// An absent option omits the trailing segment entirely.
func (d DDID) Forward() string {
	s := join(d.RouteID, d.DialogID, d.SequenceID, d.ItemID)
	if d.OptionID != nil {
		s += separator + strconv.Itoa(*d.OptionID)
	}
	return s
}

// Trace encodes the position without the option, as stored in the navigation stack.
func (d DDID) Trace() string {
	return join(d.RouteID, d.DialogID, d.SequenceID, d.ItemID)
}

// Back encodes the back sentinel "{route}:-1:{dialog}:{sequence}:{item}".
func (d DDID) Back() string {
	return join(d.RouteID, BackMarker, d.DialogID, d.SequenceID, d.ItemID)
}

// WithOption returns a copy of d addressing the given option.
func (d DDID) WithOption(optionID int) DDID {
	d.OptionID = domain.Ref(optionID)
	return d
}

// Route is a decoded token.
type Route struct {
	Kind Kind
	Raw  string

	// ScreenID is set for KindScreen; Args holds any trailing integer segments.
	ScreenID int
	Args     []int

	// DDID is set for KindForward and KindBack.
	DDID DDID

	// Fallback is true when the token was malformed and replaced by the default screen.
	Fallback bool
}

// Leading returns the leading integer component of the route,
// the only part used to pick a handler.
func (r Route) Leading() int {
	switch r.Kind {
	case KindForward, KindBack:
		return r.DDID.RouteID
	case KindStaticBack:
		return BackMarker
	default:
		return r.ScreenID
	}
}

// Screen encodes a static screen token.
func Screen(id int, args ...int) string {
	return join(append([]int{id}, args...)...)
}

// Parse decodes a token and never fails: malformed or stale tokens degrade to
// the default screen with Fallback set, so callers can log and move on.
func Parse(token string, defaultScreen int) Route {
	r, err := Decode(token)
	if err != nil {
		return Route{
			Kind:     KindScreen,
			Raw:      token,
			ScreenID: defaultScreen,
			Fallback: true,
		}
	}
	return r
}

// Decode strictly parses a token. Errors wrap domain.ErrMalformedRoute.
func Decode(token string) (Route, error) {
	raw := strings.TrimSpace(token)
	if raw == "" {
		return Route{}, fmt.Errorf("%w: empty token", domain.ErrMalformedRoute)
	}

	parts := strings.Split(raw, separator)
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Route{}, fmt.Errorf("%w: segment %d of %q is not an integer", domain.ErrMalformedRoute, i, token)
		}
		nums[i] = n
	}

	if len(nums) == 1 {
		if nums[0] == BackMarker {
			return Route{Kind: KindStaticBack, Raw: raw, ScreenID: BackMarker}, nil
		}
		if nums[0] < 0 {
			return Route{}, fmt.Errorf("%w: negative screen id in %q", domain.ErrMalformedRoute, token)
		}
		return Route{Kind: KindScreen, Raw: raw, ScreenID: nums[0]}, nil
	}

	if nums[1] == BackMarker {
		if len(nums) != 5 || anyNegative(nums[0], nums[2], nums[3], nums[4]) {
			return Route{}, fmt.Errorf("%w: bad back sentinel %q", domain.ErrMalformedRoute, token)
		}
		return Route{
			Kind: KindBack,
			Raw:  raw,
			DDID: DDID{RouteID: nums[0], DialogID: nums[2], SequenceID: nums[3], ItemID: nums[4]},
		}, nil
	}

	if anyNegative(nums...) {
		return Route{}, fmt.Errorf("%w: negative segment in %q", domain.ErrMalformedRoute, token)
	}

	switch len(nums) {
	case 4, 5:
		d := DDID{RouteID: nums[0], DialogID: nums[1], SequenceID: nums[2], ItemID: nums[3]}
		if len(nums) == 5 {
			d.OptionID = domain.Ref(nums[4])
		}
		return Route{Kind: KindForward, Raw: raw, DDID: d}, nil
	default:
		return Route{Kind: KindScreen, Raw: raw, ScreenID: nums[0], Args: nums[1:]}, nil
	}
}

func join(nums ...int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, separator)
}

func anyNegative(nums ...int) bool {
	for _, n := range nums {
		if n < 0 {
			return true
		}
	}
	return false
}

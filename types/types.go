package types

// Request is a message sent from the client to the daemon. A single request
// may change the color and the subscriptions of the connection at once.
type Request struct {
	Color *Color `json:"color,omitempty"`
	// Subscribe makes the daemon push a Response to this connection every
	// time the subscribed value changes.
	Subscribe   []SubscriptionKey `json:"subscribe,omitempty"`
	Unsubscribe []SubscriptionKey `json:"unsubscribe,omitempty"`
}

// SubscriptionKey names a value clients can subscribe to.
type SubscriptionKey string

// SubscriptionKeyColor is the color applied to the outputs.
const SubscriptionKeyColor SubscriptionKey = "color"

// Response is a message sent from the daemon to the client in response to a
// Request, or pushed to subscribed clients.
type Response struct {
	// Error will be set to a non-empty string when the operation was
	// unsuccessful.
	Error string `json:"message,omitempty"`
	// Color will contain the current absolute color settings.
	Color *Color `json:"color,omitempty"`
	// Subscription is set on responses pushed to subscribers.
	Subscription SubscriptionKey `json:"subscription,omitempty"`
}

// Color defines the color settings.
type Color struct {
	// Temperature is a relative or absolute integer in Kelvin. Strings
	// containing a + or - prefix will be treated as relative.
	Temperature string `json:"temperature,omitempty"`
	// Brightness is a relative or absolute float value.
	Brightness string `json:"brightness,omitempty"`
	// Gamma is a relative or absolute float value applied to all three
	// channels.
	Gamma string `json:"gamma,omitempty"`
}

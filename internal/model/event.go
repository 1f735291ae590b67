package model

// Source identifies the provider a raw payload or canonical record came
// from.  Values are lower-case tags such as "ticketmaster".
type Source string

const (
	SourceTicketmaster   Source = "ticketmaster"
	SourceRealTimeEvents Source = "realtime"
)

// Default values applied by the normalizer when a provider omits a field.
const (
	DefaultEventName = "Untitled Event"
	DefaultEventType = "event"
	DefaultCurrency  = "USD"
	DefaultStatus    = "unknown"
)

// Event is the canonical representation of one live event regardless of
// the provider that supplied it.  ID, DataSource and Name are always set.
// Details is populated only for providers with a registered mapping; the
// fallback mapping leaves it nil, and the embedded pointer keeps those
// fields out of the JSON encoding entirely.
//
// Events are built per request, never mutated after construction and
// never persisted.
type Event struct {
	ID         string `json:"id"`
	DataSource string `json:"data_source"`
	Name       string `json:"name"`
	*Details
}

// Details carries the provider-rich part of an Event.  Every nullable
// field is a pointer so that an absent value encodes as an explicit null,
// and every slice is non-nil so it encodes as [].
type Details struct {
	Description     *string        `json:"description"`
	Type            string         `json:"type"`
	Category        *string        `json:"category"`
	Genre           *string        `json:"genre"`
	SubGenre        *string        `json:"subGenre"`
	URL             *string        `json:"url"`
	Images          []Image        `json:"images"`
	Date            EventDate      `json:"date"`
	Venue           Venue          `json:"venue"`
	Pricing         Pricing        `json:"pricing"`
	Sales           Sales          `json:"sales"`
	Status          string         `json:"status"`
	Accessibility   map[string]any `json:"accessibility"`
	AgeRestrictions *bool          `json:"ageRestrictions"`
	Seatmap         *string        `json:"seatmap"`
	Promoter        Promoter       `json:"promoter"`
	Attractions     []Attraction   `json:"attractions"`
}

type Image struct {
	URL      *string `json:"url"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Ratio    *string `json:"ratio"`
	Fallback bool    `json:"fallback"`
}

// EventDate holds the provider's local start information.  The three
// flags default to false when the provider omits them.
type EventDate struct {
	Start          *string `json:"start"`
	Time           *string `json:"time"`
	DateTime       *string `json:"datetime"`
	Timezone       *string `json:"timezone"`
	TBA            bool    `json:"tba"`
	TBD            bool    `json:"tbd"`
	NoSpecificTime bool    `json:"noSpecificTime"`
}

type Venue struct {
	ID          *string  `json:"id"`
	Name        *string  `json:"name"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	StateCode   *string  `json:"stateCode"`
	PostalCode  *string  `json:"postalCode"`
	Country     *string  `json:"country"`
	CountryCode *string  `json:"countryCode"`
	Location    Location `json:"location"`
	Timezone    *string  `json:"timezone"`
	URL         *string  `json:"url"`
}

// Location keeps coordinates as the provider sends them (decimal strings).
type Location struct {
	Latitude  *string `json:"latitude"`
	Longitude *string `json:"longitude"`
}

type Pricing struct {
	Currency string   `json:"currency"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Type     *string  `json:"type"`
}

type Sales struct {
	Public   SaleWindow `json:"public"`
	Presales []Presale  `json:"presales"`
}

type SaleWindow struct {
	StartDateTime *string `json:"startDateTime"`
	EndDateTime   *string `json:"endDateTime"`
}

type Presale struct {
	Name          *string `json:"name"`
	StartDateTime *string `json:"startDateTime"`
	EndDateTime   *string `json:"endDateTime"`
}

type Promoter struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Attraction is a flattened performer summary.  Image is the URL of the
// first image the provider lists for the performer.
type Attraction struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  *string `json:"type"`
	URL   *string `json:"url"`
	Image *string `json:"image"`
}

// MinPrice returns the lowest known price, or nil when the event carries
// no pricing information.
func (e Event) MinPrice() *float64 {
	if e.Details == nil {
		return nil
	}
	return e.Pricing.Min
}

// Listing is a secondary-source offer for an event.  EventID and
// EventName refer to the primary event the listing was matched against.
type Listing struct {
	EventID     string  `json:"event_id"`
	EventName   string  `json:"event_name"`
	ProviderURL string  `json:"provider_url"`
	DataSource  string  `json:"data_source"`
	Icon        *string `json:"icon,omitempty"`
}

// ListingStatus reports whether any secondary listings were surfaced.
type ListingStatus string

const (
	ListingsFound    ListingStatus = "found"
	ListingsNotFound ListingStatus = "not found"
	EventNotFound    ListingStatus = "event not found"
	ListingsError    ListingStatus = "error"
)

// Comparison is the result of merging a primary event with the listings
// a secondary provider returned for the same event name.  Primary is nil
// only when the primary lookup itself failed.
type Comparison struct {
	Primary  *Event        `json:"primary"`
	Listings []Listing     `json:"listings"`
	Status   ListingStatus `json:"status"`
	Message  string        `json:"message,omitempty"`
}

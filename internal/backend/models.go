package backend

import "encoding/json"

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the token pair returned by the login endpoint. Access is
// the bearer token; Refresh is decoded for display only.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`

	// Raw is the response body as received.
	Raw json.RawMessage `json:"-"`
}

// LocationsEnvelope is the {message, data} wrapper around the locations
// payload. Both fields are kept raw; nothing beyond data.locations is read.
type LocationsEnvelope struct {
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`

	Raw json.RawMessage `json:"-"`
}

// Locations returns data.locations element by element. It is empty when data
// is missing or null, when locations is missing, or when it is not an array.
// A string value counts as no locations, not as its length.
func (e *LocationsEnvelope) Locations() []json.RawMessage {
	if len(e.Data) == 0 {
		return nil
	}
	var data struct {
		Locations json.RawMessage `json:"locations"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil || len(data.Locations) == 0 {
		return nil
	}
	var locations []json.RawMessage
	if err := json.Unmarshal(data.Locations, &locations); err != nil {
		return nil
	}
	return locations
}

func (e *LocationsEnvelope) LocationCount() int {
	return len(e.Locations())
}

// FirstLocation returns the first element of data.locations unchanged, or nil
// when there is none.
func (e *LocationsEnvelope) FirstLocation() json.RawMessage {
	locations := e.Locations()
	if len(locations) == 0 {
		return nil
	}
	return locations[0]
}

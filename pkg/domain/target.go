package domain

// Target is where the request layer should send the user.
// Either Route (symbolic, with Params) or URL (concrete) is set; the dispatcher
// fills URL by reversing Route through the router.
type Target struct {
	Route  string            `json:"route,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	URL    string            `json:"url"`

	// Spec and Node report where the top instance settled.
	Spec string `json:"spec,omitempty"`
	Node string `json:"node,omitempty"`
}

// Route builds a symbolic target.
func Route(name string, params map[string]string) Target {
	return Target{Route: name, Params: params}
}

// URL builds a concrete target.
func URL(u string) Target {
	return Target{URL: u}
}

// Resolved reports whether the target already carries a concrete address.
func (t Target) Resolved() bool { return t.URL != "" }

// IsZero reports whether the target is empty.
func (t Target) IsZero() bool { return t.Route == "" && t.URL == "" }

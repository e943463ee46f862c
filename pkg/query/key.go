package query

// Key identifies one logical request: an endpoint plus its ordered
// parameters. Two keys comparing Equal describe the same request wherever
// they were computed. Keys are compared, logged and thrown away, never
// persisted.
type Key struct {
	Endpoint string
	Params   Params
}

func NewKey(endpoint string, params Params) Key {
	return Key{Endpoint: endpoint, Params: params.Clone()}
}

func (k Key) Equal(other Key) bool {
	return k.Endpoint == other.Endpoint && k.Params.Equal(other.Params)
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Endpoint
	}
	return k.Endpoint + "?" + k.Params.Encode()
}

package resource

// Request names a text resource and where to fetch it from.
type Request struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// Result is the outcome of one fetch: Value when Err is nil, Err otherwise.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// Bundle maps resource names to their fetched values. A bundle returned by JoinAll holds
// every requested name.
type Bundle[T any] map[string]T

// Has reports whether all names are present.
func (b Bundle[T]) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := b[n]; !ok {
			return false
		}
	}
	return true
}

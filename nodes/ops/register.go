package ops

import "github.com/graphene-go/graphene/registry"

func init() {
	if err := Register(registry.Default()); err != nil {
		panic(err)
	}
}

// Register adds the arithmetic, vector, and transform primitives to a
// registry.
func Register(r *registry.Registry) error {
	for _, e := range append(baseEntries(), transformEntries()...) {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

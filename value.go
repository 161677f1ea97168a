package crucible

// DependencyValue pairs a resolved instance with the scope it is cached
// under. A nil Scope means the value is never cached and every resolution
// produces a fresh instance.
type DependencyValue struct {
	Value any
	Scope *Scope
}

// Singleton reports whether the value lives for the container's lifetime.
func (v DependencyValue) Singleton() bool {
	return v.Scope == Singleton()
}

// Cached reports whether the value is retained under any scope.
func (v DependencyValue) Cached() bool {
	return v.Scope != nil && v.Scope != Sentinel()
}

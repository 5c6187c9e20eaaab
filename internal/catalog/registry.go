package catalog

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Resource)
	order      []string
	registryMu sync.RWMutex
)

// Register adds a resource. Panics if the key is already registered.
func Register(res Resource) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[res.Key]; exists {
		panic(fmt.Sprintf("resource already registered: %s", res.Key))
	}
	if res.Path == "" {
		res.Path = "/admin/" + res.Key
	}

	registry[res.Key] = res
	order = append(order, res.Key)
}

// Get returns a resource by key.
func Get(key string) (Resource, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	res, ok := registry[key]
	return res, ok
}

// MustGet returns a resource by key and panics if it is unknown.
func MustGet(key string) Resource {
	res, ok := Get(key)
	if !ok {
		panic(fmt.Sprintf("unknown resource: %s", key))
	}
	return res
}

// All returns every resource in registration order.
func All() []Resource {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Resource, 0, len(order))
	for _, key := range order {
		out = append(out, registry[key])
	}
	return out
}

// Exportable returns the resources that support CSV export/import, in
// registration order.
func Exportable() []Resource {
	var out []Resource
	for _, res := range All() {
		if res.Exportable() {
			out = append(out, res)
		}
	}
	return out
}

// ByGroup returns the resources of one sidebar group in registration order.
func ByGroup(group string) []Resource {
	var out []Resource
	for _, res := range All() {
		if res.Group == group {
			out = append(out, res)
		}
	}
	return out
}

// Groups returns the group names sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, res := range registry {
		seen[res.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Count returns the number of registered resources.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

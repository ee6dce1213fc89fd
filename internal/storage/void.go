package storage

import "fmt"

// VoidStorage is a noop storage
type VoidStorage struct {
}

func (d VoidStorage) Store(name string, s Snapshot) error {
	return nil
}

func (d VoidStorage) Load(name string) (Snapshot, error) {
	return Snapshot{}, fmt.Errorf("not found '%v': %w", name, NotFoundErr)
}

// NewVoidStorage creates a new noop storage
func NewVoidStorage() *VoidStorage {
	return &VoidStorage{}
}

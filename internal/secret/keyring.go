package secret

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/zalando/go-keyring"
)

// service is the OS keyring service namespace all cuba secrets live under.
const service = "cuba"

// Keyring backs the secret store onto the OS keyring. OS keyrings have no
// "list" primitive, so a companion entry under ReservedIDsKey stores the
// JSON-encoded set of registered ids.
type Keyring struct{}

func NewKeyring() *Keyring { return &Keyring{} }

func (k *Keyring) StoreSecret(id, value string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := keyring.Set(service, id, value); err != nil {
		return err
	}
	return k.addToIndex(id)
}

func (k *Keyring) Get(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	v, err := keyring.Get(service, id)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return v, err
}

func (k *Keyring) Remove(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := keyring.Delete(service, id); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return k.removeFromIndex(id)
}

func (k *Keyring) List() ([]string, error) {
	return k.readIndex()
}

func (k *Keyring) readIndex() ([]string, error) {
	raw, err := keyring.Get(service, ReservedIDsKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (k *Keyring) writeIndex(ids []string) error {
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return keyring.Set(service, ReservedIDsKey, string(raw))
}

func (k *Keyring) addToIndex(id string) error {
	ids, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return k.writeIndex(append(ids, id))
}

func (k *Keyring) removeFromIndex(id string) error {
	ids, err := k.readIndex()
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return k.writeIndex(filtered)
}

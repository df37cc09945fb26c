package params

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save writes a Vector to the file at path, creating or truncating
// it. The format is an opaque serialized parameter collection
// readable by Load.
func Save(path string, v Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v",
			err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("save: could not encode parameters: %v", err)
	}
	return nil
}

// Load reads a Vector previously written by Save. A corrupted or
// unreadable file surfaces as an error; there is no recovery path.
func Load(path string) (Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open checkpoint file: %v",
			err)
	}
	defer f.Close()

	var v Vector
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("load: could not decode parameters: %v",
			err)
	}
	return v, nil
}

package pipeline

import (
	"fmt"
	"io"

	"filippo.io/age"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// ScryptWorkFactor is the log2(N) scrypt cost parameter spec.md §4.3
// mandates for the Age passphrase recipient/identity.
const ScryptWorkFactor = 14

// AEADEncrypt returns a Processor that wraps r with the Age file format
// using a scrypt passphrase recipient at ScryptWorkFactor, appending ".age"
// to destPath.
func AEADEncrypt(passphrase string) (Processor, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("pipeline: age recipient: %w", err)
	}
	recipient.SetWorkFactor(ScryptWorkFactor)

	return func(r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
		out, err := newPipeline(r, func(w io.Writer) (io.WriteCloser, error) {
			return age.Encrypt(w, recipient)
		})
		if err != nil {
			return nil, err
		}
		if destPath != nil {
			*destPath = ppath.PushExt(*destPath, ".age")
		}
		return out, nil
	}, nil
}

// AEADDecrypt returns a Processor that decrypts an Age-formatted stream
// with the given passphrase, stripping a trailing ".age" from destPath.
// A wrong passphrase or a damaged header fails the processor call itself;
// a payload that fails authentication surfaces as a Read error from the
// returned reader. Callers report either as TransferFailed/VerifiedFailed.
func AEADDecrypt(passphrase string) (Processor, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("pipeline: age identity: %w", err)
	}

	return func(r io.Reader, destPath *ppath.Path[ppath.Rel, ppath.File]) (io.ReadCloser, error) {
		plain, err := age.Decrypt(r, identity)
		if err != nil {
			return nil, err
		}
		if destPath != nil {
			if popped, ok := ppath.PopExtIf(*destPath, ".age"); ok {
				*destPath = popped
			}
		}
		return io.NopCloser(plain), nil
	}, nil
}

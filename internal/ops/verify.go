package ops

import (
	"fmt"

	"github.com/zarniwp/cuba-go/internal/manifest"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/pipeline"
	"github.com/zarniwp/cuba-go/internal/ppath"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/worker"
)

// VerifyConfig parameterizes Verify. Backup is the mount holding the
// manifest and the transferred bytes being checked.
type VerifyConfig struct {
	Config
	Backup    Mount
	Passwords *pwcache.Cache
	VerifyAll bool
}

// Verify re-derives every (or, unless VerifyAll, every not-already-verified)
// record's signature from the bytes stored under Backup and marks the
// manifest VERIFIED or VERIFY_ERROR accordingly.
func Verify(cfg VerifyConfig) error {
	cfg.RunState.Start()
	defer cfg.RunState.Stop()

	if err := connectMount(cfg.Backup); err != nil {
		return err
	}
	defer disconnectMount(cfg.Backup)

	tn, err := manifest.Load(cfg.Backup.FS, cfg.Backup.Root)
	if err != nil {
		return fmt.Errorf("ops: verify: load manifest: %w", err)
	}

	skip := manifest.MaskedFlags{
		Mode:  manifest.Uq,
		Flags: manifest.FlagVerified,
		Mask:  manifest.FlagVerified | manifest.FlagVerifyError,
	}

	var keys []string
	tn.RangeSrc(func(key string, n manifest.Node) bool {
		if !cfg.VerifyAll && !skip.Matches(n.Flags) {
			return true
		}
		keys = append(keys, key)
		return true
	})

	cfg.Bus.Publish(message.NewDuration(len(keys)))

	q := worker.NewQueue(keys)
	worker.Run(cfg.threads(), func(thread int) bool {
		key, ok := q.Pop()
		if !ok {
			return false
		}
		if cfg.RunState.IsCancelled() {
			return false
		}
		verifyTask(cfg, tn, thread, key)
		cfg.Bus.Publish(message.NewTick(1))
		return true
	})

	if cfg.RunState.IsCancelled() {
		return nil
	}
	if err := tn.Save(cfg.Backup.FS, cfg.Backup.Root); err != nil {
		return fmt.Errorf("ops: verify: save manifest: %w", err)
	}
	return nil
}

func verifyTask(cfg VerifyConfig, tn *manifest.TransferredNodes, thread int, key string) {
	kind, relPath, err := manifest.ParseDisplayKey(key)
	if err != nil {
		return
	}
	n, ok := tn.GetBySrc(key)
	if !ok {
		return
	}

	switch kind {
	case ppath.UDir:
		dirPath, err := ppath.NewRel[ppath.Dir](n.DestRelPath)
		if err != nil {
			markVerify(cfg, tn, key, false)
			cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrFsMetaFailed, err))
			return
		}
		abs := ppath.Add(cfg.Backup.Root, dirPath)
		if _, err := cfg.Backup.FS.Meta(ppath.FromTypedDir(abs)); err != nil {
			markVerify(cfg, tn, key, false)
			cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrVerifiedFailed, err))
			return
		}
		markVerify(cfg, tn, key, true)
		cfg.Bus.Publish(message.NewTaskInfo(thread, relPath, message.TaskVerified))

	case ppath.UFile:
		verifyFile(cfg, tn, thread, key, relPath, n)

	case ppath.USymlink:
		markVerify(cfg, tn, key, true)
		cfg.Bus.Publish(message.NewTaskInfo(thread, relPath, message.TaskVerified))
	}
}

func verifyFile(cfg VerifyConfig, tn *manifest.TransferredNodes, thread int, key, relPath string, n manifest.Node) {
	filePath, err := ppath.NewRel[ppath.File](n.DestRelPath)
	if err != nil {
		markVerify(cfg, tn, key, false)
		cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrFsReadFailed, err))
		return
	}
	abs := ppath.Add(cfg.Backup.Root, filePath)

	r, err := cfg.Backup.FS.ReadData(abs)
	if err != nil {
		markVerify(cfg, tn, key, false)
		cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrFsReadFailed, err))
		return
	}

	var procs []pipeline.Processor
	if n.Flags&manifest.FlagEncrypted != 0 {
		pass, err := cfg.Passwords.Get(n.PasswordID)
		if err != nil {
			r.Close()
			markVerify(cfg, tn, key, false)
			cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrNoPasswordID, err))
			return
		}
		dec, err := pipeline.AEADDecrypt(pass)
		if err != nil {
			r.Close()
			markVerify(cfg, tn, key, false)
			cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrVerifiedFailed, err))
			return
		}
		procs = append(procs, dec)
	}
	if n.Flags&manifest.FlagCompressed != 0 {
		procs = append(procs, pipeline.GzipDecode)
	}

	decoded, err := pipeline.Compose(procs, r, nil)
	if err != nil {
		markVerify(cfg, tn, key, false)
		cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrVerifiedFailed, err))
		return
	}

	sig, err := signatureOf(decoded)
	if err != nil {
		markVerify(cfg, tn, key, false)
		cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrVerifiedFailed, err))
		return
	}

	if n.SrcSignature != nil && sig == *n.SrcSignature {
		markVerify(cfg, tn, key, true)
		cfg.Bus.Publish(message.NewTaskInfo(thread, relPath, message.TaskVerified))
	} else {
		markVerify(cfg, tn, key, false)
		cfg.Bus.Publish(message.NewTaskError(thread, relPath, message.ErrVerifiedFailed, nil))
	}
}

// markVerify always sets VERIFIED once a node has been checked, win or
// lose, and toggles VERIFY_ERROR based on the outcome — the two flags are
// not mutually exclusive. Grounded on original_source/cuba-lib's
// node_verify_task.rs set_verified_ok, which inserts VERIFIED
// unconditionally in both branches and only conditionally inserts/removes
// VERIFY_ERROR.
func markVerify(cfg VerifyConfig, tn *manifest.TransferredNodes, key string, ok bool) {
	n, found := tn.GetBySrc(key)
	if !found {
		return
	}
	flags := n.Flags | manifest.FlagVerified
	if ok {
		flags &^= manifest.FlagVerifyError
	} else {
		flags |= manifest.FlagVerifyError
	}
	tn.SetFlags(key, flags)
}

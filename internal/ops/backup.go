package ops

import (
	"fmt"
	"io"

	"github.com/zarniwp/cuba-go/internal/manifest"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/pipeline"
	"github.com/zarniwp/cuba-go/internal/ppath"
	"github.com/zarniwp/cuba-go/internal/pwcache"
	"github.com/zarniwp/cuba-go/internal/worker"
)

// BackupConfig parameterizes Backup.
type BackupConfig struct {
	Config
	Src Mount
	Dst Mount

	Compress   bool
	Encrypt    bool
	PasswordID string
	Passwords  *pwcache.Cache
}

// Backup walks Src, transfers every not-up-to-date file/symlink/dir into
// Dst through the configured pipeline, and rewrites the manifest — exactly
// the skeleton and per-kind algorithms of spec.md §4.5's Backup section.
func Backup(cfg BackupConfig) error {
	cfg.RunState.Start()
	defer cfg.RunState.Stop()

	if err := connectMount(cfg.Src); err != nil {
		return err
	}
	defer disconnectMount(cfg.Src)
	if err := connectMount(cfg.Dst); err != nil {
		return err
	}
	defer disconnectMount(cfg.Dst)

	tn, err := manifest.Load(cfg.Dst.FS, cfg.Dst.Root)
	if err != nil {
		return fmt.Errorf("ops: backup: load manifest: %w", err)
	}

	include, exclude := cfg.matchers()
	var enumErr error
	dirs, files, symlinks := enumerateSource(cfg.Src.FS, cfg.Src.Root, include, exclude, func(path string, err error) {
		if enumErr == nil {
			enumErr = fmt.Errorf("%s: %w", path, err)
		}
	})
	if enumErr != nil {
		return fmt.Errorf("ops: backup: enumerate: %w", enumErr)
	}

	tn.InsertFlags(manifest.FlagOrphan)

	total := len(dirs) + len(files) + len(symlinks)
	cfg.Bus.Publish(message.NewDuration(total))

	if err := backupDirs(cfg, tn, dirs); err != nil {
		return fmt.Errorf("ops: backup: dirs: %w", err)
	}
	backupFiles(cfg, tn, files)
	backupSymlinks(cfg, tn, symlinks)

	if cfg.RunState.IsCancelled() {
		return nil
	}
	if err := tn.Save(cfg.Dst.FS, cfg.Dst.Root); err != nil {
		return fmt.Errorf("ops: backup: save manifest: %w", err)
	}
	return nil
}

func backupDirs(cfg BackupConfig, tn *manifest.TransferredNodes, dirs []node) error {
	skipMkdir := manifest.MaskedFlags{Mode: manifest.Eq, Flags: 0, Mask: manifest.FlagVerifyError}

	return runByDepthLayers(cfg.threads(), dirs, func(n node) error {
		defer cfg.Bus.Publish(message.NewTick(1))
		if cfg.RunState.IsCancelled() {
			return nil
		}

		key := manifest.DisplayKey(ppath.UDir, n.rel)
		relDir, err := ppath.NewRel[ppath.Dir](n.rel)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(0, n.rel, message.ErrFsMkDirFailed, err))
			return err
		}
		destPath := ppath.Add(cfg.Dst.Root, relDir)

		existing, hasExisting := tn.GetBySrc(key)
		if !hasExisting || !skipMkdir.Matches(existing.Flags) {
			if mkErr := cfg.Dst.FS.Mkdir(destPath); mkErr != nil {
				if _, metaErr := cfg.Dst.FS.Meta(ppath.FromTypedDir(destPath)); metaErr != nil {
					cfg.Bus.Publish(message.NewTaskError(0, n.rel, message.ErrFsMkDirFailed, mkErr))
					return mkErr
				}
			}
		}

		tn.Set(key, manifest.Node{
			Kind:        ppath.UDir,
			DestRelPath: n.rel,
			Flags:       existing.Flags &^ manifest.FlagOrphan,
		})
		cfg.Bus.Publish(message.NewTaskInfo(0, n.rel, message.TaskFinished))
		return nil
	})
}

func backupFiles(cfg BackupConfig, tn *manifest.TransferredNodes, files []node) {
	q := worker.NewQueue(files)
	worker.Run(cfg.threads(), func(thread int) bool {
		n, ok := q.Pop()
		if !ok {
			return false
		}
		if cfg.RunState.IsCancelled() {
			return false
		}
		backupFileTask(cfg, tn, thread, n)
		cfg.Bus.Publish(message.NewTick(1))
		return true
	})
}

func backupFileTask(cfg BackupConfig, tn *manifest.TransferredNodes, thread int, n node) {
	key := manifest.DisplayKey(ppath.UFile, n.rel)
	srcPath := n.abs.AsFile()

	srcSig, err := signatureOfFile(cfg.Src.FS, srcPath)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrFsReadFailed, err))
		return
	}

	desired := manifest.Flag(0)
	if cfg.Compress {
		desired |= manifest.FlagCompressed
	}
	if cfg.Encrypt {
		desired |= manifest.FlagEncrypted
	}
	mask := manifest.FlagCompressed | manifest.FlagEncrypted | manifest.FlagVerifyError
	upToDate := manifest.MaskedFlags{Mode: manifest.Eq, Flags: desired, Mask: mask}

	if existing, ok := tn.GetBySrc(key); ok &&
		upToDate.Matches(existing.Flags) &&
		existing.PasswordID == cfg.PasswordID &&
		existing.SrcSignature != nil && *existing.SrcSignature == srcSig {
		tn.SetFlags(key, existing.Flags&^manifest.FlagOrphan)
		cfg.Bus.Publish(message.NewTaskInfo(thread, n.rel, message.TaskUpToDate))
		return
	}

	var procs []pipeline.Processor
	if cfg.Compress {
		procs = append(procs, pipeline.GzipEncode)
	}
	if cfg.Encrypt {
		pass, err := cfg.Passwords.Get(cfg.PasswordID)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrNoPasswordID, err))
			return
		}
		enc, err := pipeline.AEADEncrypt(pass)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrTransferFailed, err))
			return
		}
		procs = append(procs, enc)
	}

	destRel, err := ppath.NewRel[ppath.File](n.rel)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrTransferFailed, err))
		return
	}

	r, err := cfg.Src.FS.ReadData(srcPath)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrFsReadFailed, err))
		return
	}
	wrapped, err := pipeline.Compose(procs, r, &destRel)
	if err != nil {
		r.Close()
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrTransferFailed, err))
		return
	}

	destPath := ppath.Add(cfg.Dst.Root, destRel)
	sink, err := cfg.Dst.FS.WriteData(destPath)
	if err != nil {
		wrapped.Close()
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrFsWriteFailed, err))
		return
	}

	written, copyErr := io.Copy(sink, wrapped)
	closeErr := wrapped.Close()
	finishErr := sink.Finish()
	if err := firstNonNil(copyErr, closeErr, finishErr); err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrTransferFailed, err))
		return
	}

	destMeta, err := cfg.Dst.FS.Meta(ppath.FromTyped(destPath))
	if err != nil || destMeta.Size == nil || *destMeta.Size != written {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrVerifiedFailed, err))
		return
	}

	sig := srcSig
	tn.Set(key, manifest.Node{
		Kind:         ppath.UFile,
		DestRelPath:  destRel.String(),
		Flags:        desired,
		PasswordID:   cfg.PasswordID,
		SrcSignature: &sig,
	})
	cfg.Bus.Publish(message.NewTaskInfo(thread, n.rel, message.TaskTransferred))
}

func backupSymlinks(cfg BackupConfig, tn *manifest.TransferredNodes, symlinks []node) {
	q := worker.NewQueue(symlinks)
	worker.Run(cfg.threads(), func(thread int) bool {
		n, ok := q.Pop()
		if !ok {
			return false
		}
		if cfg.RunState.IsCancelled() {
			return false
		}
		backupSymlinkTask(cfg, tn, thread, n)
		cfg.Bus.Publish(message.NewTick(1))
		return true
	})
}

func backupSymlinkTask(cfg BackupConfig, tn *manifest.TransferredNodes, thread int, n node) {
	key := manifest.DisplayKey(ppath.USymlink, n.rel)
	srcPath := n.abs.AsSymlink()

	meta, err := cfg.Src.FS.Meta(ppath.FromTypedSymlink(srcPath))
	if err != nil || meta.Symlink == nil {
		cfg.Bus.Publish(message.NewTaskError(thread, n.rel, message.ErrFsMetaFailed, err))
		return
	}

	if existing, ok := tn.GetBySrc(key); ok &&
		existing.SrcSymlinkMeta != nil && *existing.SrcSymlinkMeta == *meta.Symlink {
		tn.SetFlags(key, existing.Flags&^manifest.FlagOrphan)
		cfg.Bus.Publish(message.NewTaskInfo(thread, n.rel, message.TaskUpToDate))
		return
	}

	symMeta := *meta.Symlink
	tn.Set(key, manifest.Node{
		Kind:           ppath.USymlink,
		DestRelPath:    n.rel,
		SrcSymlinkMeta: &symMeta,
	})
	cfg.Bus.Publish(message.NewTaskInfo(thread, n.rel, message.TaskFinished))
}

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

// RestoreConfig parameterizes Restore. Src is the prior backup (manifest
// and transferred bytes live there); Dst is the tree being restored into.
type RestoreConfig struct {
	Config
	Src       Mount
	Dst       Mount
	Passwords *pwcache.Cache
}

// restoreItem is one manifest record reframed for restore: relPath is the
// original source path (restore's destination under Dst), destRelPath is
// where the bytes actually live under Src (the backup's storage layout).
type restoreItem struct {
	relPath     string
	destRelPath string
	kind        ppath.UKind
	node        manifest.Node
}

// Restore reads the manifest from Src and recreates every entry's original
// path under Dst — the mirror image of Backup. The manifest itself is
// never rewritten by restore (spec.md §4.5).
func Restore(cfg RestoreConfig) error {
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

	tn, err := manifest.Load(cfg.Src.FS, cfg.Src.Root)
	if err != nil {
		return fmt.Errorf("ops: restore: load manifest: %w", err)
	}

	include, exclude := cfg.matchers()
	var dirs, files, symlinks []restoreItem
	tn.RangeDest(func(destKey, srcKey string, n manifest.Node) bool {
		kind, relPath, err := manifest.ParseDisplayKey(srcKey)
		if err != nil {
			return true
		}
		if exclude.Match(relPath) {
			return true
		}
		switch kind {
		case ppath.UDir:
			if !include.IncludeDir(relPath) {
				return true
			}
			dirs = append(dirs, restoreItem{relPath: relPath, destRelPath: destKey, kind: kind, node: n})
		case ppath.UFile:
			if include != nil && !include.Match(relPath) {
				return true
			}
			files = append(files, restoreItem{relPath: relPath, destRelPath: destKey, kind: kind, node: n})
		case ppath.USymlink:
			if include != nil && !include.Match(relPath) {
				return true
			}
			symlinks = append(symlinks, restoreItem{relPath: relPath, destRelPath: destKey, kind: kind, node: n})
		}
		return true
	})

	total := len(dirs) + len(files) + len(symlinks)
	cfg.Bus.Publish(message.NewDuration(total))

	if err := restoreDirs(cfg, dirs); err != nil {
		return fmt.Errorf("ops: restore: dirs: %w", err)
	}
	restoreFiles(cfg, files)
	restoreSymlinks(cfg, symlinks)

	return nil
}

func restoreItemsToNodes(items []restoreItem) []node {
	out := make([]node, len(items))
	for i, it := range items {
		out[i] = node{rel: it.relPath}
	}
	return out
}

func restoreDirs(cfg RestoreConfig, items []restoreItem) error {
	nodes := restoreItemsToNodes(items)
	return runByDepthLayers(cfg.threads(), nodes, func(n node) error {
		defer cfg.Bus.Publish(message.NewTick(1))
		if cfg.RunState.IsCancelled() {
			return nil
		}
		relDir, err := ppath.NewRel[ppath.Dir](n.rel)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(0, n.rel, message.ErrFsMkDirFailed, err))
			return err
		}
		destPath := ppath.Add(cfg.Dst.Root, relDir)
		if mkErr := cfg.Dst.FS.Mkdir(destPath); mkErr != nil {
			if _, metaErr := cfg.Dst.FS.Meta(ppath.FromTypedDir(destPath)); metaErr != nil {
				cfg.Bus.Publish(message.NewTaskError(0, n.rel, message.ErrFsMkDirFailed, mkErr))
				return mkErr
			}
		}
		cfg.Bus.Publish(message.NewTaskInfo(0, n.rel, message.TaskFinished))
		return nil
	})
}

func restoreFiles(cfg RestoreConfig, items []restoreItem) {
	q := worker.NewQueue(items)
	worker.Run(cfg.threads(), func(thread int) bool {
		it, ok := q.Pop()
		if !ok {
			return false
		}
		if cfg.RunState.IsCancelled() {
			return false
		}
		restoreFileTask(cfg, thread, it)
		cfg.Bus.Publish(message.NewTick(1))
		return true
	})
}

func restoreFileTask(cfg RestoreConfig, thread int, it restoreItem) {
	destRelPath, err := ppath.NewRel[ppath.File](it.relPath)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
		return
	}
	destPath := ppath.Add(cfg.Dst.Root, destRelPath)

	if _, metaErr := cfg.Dst.FS.Meta(ppath.FromTyped(destPath)); metaErr == nil {
		r, err := cfg.Dst.FS.ReadData(destPath)
		if err == nil {
			sig, sigErr := signatureOf(r)
			if sigErr == nil && it.node.SrcSignature != nil && sig == *it.node.SrcSignature {
				cfg.Bus.Publish(message.NewTaskInfo(thread, it.relPath, message.TaskUpToDate))
				return
			}
		}
	}

	var procs []pipeline.Processor
	if it.node.Flags&manifest.FlagEncrypted != 0 {
		pass, err := cfg.Passwords.Get(it.node.PasswordID)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrNoPasswordID, err))
			return
		}
		dec, err := pipeline.AEADDecrypt(pass)
		if err != nil {
			cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
			return
		}
		procs = append(procs, dec)
	}
	if it.node.Flags&manifest.FlagCompressed != 0 {
		procs = append(procs, pipeline.GzipDecode)
	}

	srcPath, err := ppath.NewRel[ppath.File](it.destRelPath)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
		return
	}
	srcAbs := ppath.Add(cfg.Src.Root, srcPath)

	r, err := cfg.Src.FS.ReadData(srcAbs)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrFsReadFailed, err))
		return
	}
	scratch := srcPath
	wrapped, err := pipeline.Compose(procs, r, &scratch)
	if err != nil {
		r.Close()
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
		return
	}

	sink, err := cfg.Dst.FS.WriteData(destPath)
	if err != nil {
		wrapped.Close()
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrFsWriteFailed, err))
		return
	}

	var sig [32]byte
	tapped, err := pipeline.SignatureTap(&sig)(wrapped, nil)
	if err != nil {
		wrapped.Close()
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
		return
	}

	written, copyErr := io.Copy(sink, tapped)
	closeErr := tapped.Close()
	finishErr := sink.Finish()
	if err := firstNonNil(copyErr, closeErr, finishErr); err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrTransferFailed, err))
		return
	}

	destMeta, err := cfg.Dst.FS.Meta(ppath.FromTyped(destPath))
	if err != nil || destMeta.Size == nil || *destMeta.Size != written {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrVerifiedFailed, err))
		return
	}

	if it.node.SrcSignature != nil && sig == *it.node.SrcSignature {
		cfg.Bus.Publish(message.NewTaskInfo(thread, it.relPath, message.TaskVerified))
	} else {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrVerifiedFailed, nil))
	}
}

func restoreSymlinks(cfg RestoreConfig, items []restoreItem) {
	q := worker.NewQueue(items)
	worker.Run(cfg.threads(), func(thread int) bool {
		it, ok := q.Pop()
		if !ok {
			return false
		}
		if cfg.RunState.IsCancelled() {
			return false
		}
		restoreSymlinkTask(cfg, thread, it)
		cfg.Bus.Publish(message.NewTick(1))
		return true
	})
}

func restoreSymlinkTask(cfg RestoreConfig, thread int, it restoreItem) {
	if it.node.SrcSymlinkMeta == nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrFsMklinkFailed, fmt.Errorf("ops: restore: missing symlink meta for %q", it.relPath)))
		return
	}
	symPath, err := ppath.NewRel[ppath.Symlink](it.relPath)
	if err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrFsMklinkFailed, err))
		return
	}
	destPath := ppath.Add(cfg.Dst.Root, symPath)
	if err := cfg.Dst.FS.Mklink(destPath, *it.node.SrcSymlinkMeta); err != nil {
		cfg.Bus.Publish(message.NewTaskError(thread, it.relPath, message.ErrFsMklinkFailed, err))
		return
	}
	cfg.Bus.Publish(message.NewTaskInfo(thread, it.relPath, message.TaskFinished))
}

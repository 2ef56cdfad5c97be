package ops

import (
	"fmt"

	"github.com/zarniwp/cuba-go/internal/fsabs"
	"github.com/zarniwp/cuba-go/internal/manifest"
	"github.com/zarniwp/cuba-go/internal/message"
	"github.com/zarniwp/cuba-go/internal/ppath"
)

// CleanConfig parameterizes Clean.
type CleanConfig struct {
	Config
	Dst Mount
}

// Clean sweeps every manifest entry still marked ORPHAN after a backup
// (meaning its source disappeared) plus every stray object under Dst that
// the manifest has no record of at all, per spec.md §4.5's Clean section.
func Clean(cfg CleanConfig) error {
	cfg.RunState.Start()
	defer cfg.RunState.Stop()

	if err := connectMount(cfg.Dst); err != nil {
		return err
	}
	defer disconnectMount(cfg.Dst)

	tn, err := manifest.Load(cfg.Dst.FS, cfg.Dst.Root)
	if err != nil {
		return fmt.Errorf("ops: clean: load manifest: %w", err)
	}

	rewrite := manifest.New()
	tn.RangeSrc(func(key string, n manifest.Node) bool {
		kind, _, parseErr := manifest.ParseDisplayKey(key)
		if parseErr == nil && kind == ppath.USymlink && n.Flags&manifest.FlagOrphan == 0 {
			rewrite.Set(key, n)
		}
		return true
	})

	var total int
	cfg.Dst.FS.WalkDirRec(cfg.Dst.Root, func(u ppath.UPath[ppath.Abs]) bool {
		if rel, err := relOf(cfg.Dst.Root, u); err == nil && rel == manifest.FileName {
			return false
		}
		total++
		return true
	}, func(string, error) {})
	cfg.Bus.Publish(message.NewDuration(total))

	cleanWalk(cfg, tn, rewrite)

	if cfg.RunState.IsCancelled() {
		return nil
	}
	if err := rewrite.Save(cfg.Dst.FS, cfg.Dst.Root); err != nil {
		return fmt.Errorf("ops: clean: save manifest: %w", err)
	}
	return nil
}

func cleanWalk(cfg CleanConfig, tn, rewrite *manifest.TransferredNodes) {
	cfg.Dst.FS.WalkDirRec(cfg.Dst.Root, func(u ppath.UPath[ppath.Abs]) bool {
		if cfg.RunState.IsCancelled() {
			return false
		}

		rel, err := relOf(cfg.Dst.Root, u)
		if err != nil {
			cfg.Bus.Publish(message.NewCleanError(u.String(), err))
			return false
		}
		if rel == manifest.FileName {
			return false
		}

		srcKey, n, found := tn.GetByDest(rel)
		var descend bool
		switch {
		case found && n.Flags&manifest.FlagOrphan != 0:
			removeStray(cfg, u, rel)
			descend = false
		case found:
			rewrite.Set(srcKey, n)
			cfg.Bus.Publish(message.NewCleanInfo(rel, message.CleanOk))
			descend = true
		default:
			removeStray(cfg, u, rel)
			descend = false
		}

		cfg.Bus.Publish(message.NewTick(1))
		return u.Kind() == ppath.UDir && descend
	}, func(path string, err error) {
		cfg.Bus.Publish(message.NewCleanError(path, err))
	})
}

func removeStray(cfg CleanConfig, u ppath.UPath[ppath.Abs], rel string) {
	if err := removeNode(cfg.Dst.FS, u); err != nil {
		cfg.Bus.Publish(message.NewCleanError(rel, err))
		return
	}
	cfg.Bus.Publish(message.NewCleanInfo(rel, message.CleanRemoved))
}

func removeNode(fs fsabs.Filesystem, u ppath.UPath[ppath.Abs]) error {
	switch u.Kind() {
	case ppath.UDir:
		return fs.RemoveDir(u.AsDir())
	case ppath.UFile:
		return fs.RemoveFile(u.AsFile())
	case ppath.USymlink:
		asFile, err := ppath.NewAbs[ppath.File](u.String())
		if err != nil {
			return err
		}
		return fs.RemoveFile(asFile)
	default:
		return nil
	}
}

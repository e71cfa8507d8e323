package signalzip

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CompressAll compresses every named document from src into dst, running
// up to workers pipelines at once. Each document is independent; artifacts
// are saved under BaseName(name). The first failure cancels the documents
// not yet started and is returned. Names that share a base name are
// rejected before any work starts, since their artifacts would overwrite
// each other.
func (c *Codec) CompressAll(ctx context.Context, src TextSource, dst ArtifactStore, names []string, workers int) error {
	bases := make(map[string]string, len(names))
	for _, name := range names {
		base := BaseName(name)
		if prev, dup := bases[base]; dup {
			return &StageError{Stage: StageWrite, Err: fmt.Errorf("%w: %s and %s both save to %s", ErrInvalidFormat, prev, name, base)}
		}
		bases[base] = name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := src.ReadText(name)
			if err != nil {
				return err
			}
			a, err := c.Compress(text)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := dst.Save(BaseName(name), a); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			c.logger.Debugw("compressed document", "name", name, "bytes", len(a.Binary))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

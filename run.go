// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunAll runs each runtime on its own goroutine and waits for all of them.
//
// The first runtime to fail stops the others; its error is returned. A
// runtime that returns nil does not affect the rest.
func RunAll(ctx context.Context, rts ...*Runtime) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, rt := range rts {
		g.Go(func() error {
			if err := rt.Run(gctx); err != nil {
				return fmt.Errorf("corun: runtime %d: %w", rt.ID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun_test

import (
	"testing"

	"code.hybscloud.com/corun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogger(t *testing.T) {
	prev := corun.Logger()
	t.Cleanup(func() { corun.SetLogger(prev) })

	log, logs := observed()
	corun.SetLogger(log)
	assert.Same(t, log, corun.Logger())

	// Runtimes without WithLogger log through the package logger.
	rt := newRuntime(t, corun.WithDriver(&stubDriver{}))
	_, err := rt.Go(func(task *corun.Task) error {
		task.Park()
		return nil
	})
	require.NoError(t, err)
	run(t, rt)
	entries := logs.FilterMessage("runtime stalled").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, rt.ID(), entries[0].ContextMap()["runtime"])

	corun.SetLogger(nil)
	assert.NotNil(t, corun.Logger())
	assert.NotSame(t, log, corun.Logger())
}

package bundle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/wfc/engine/bundle"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/ir"
)

func applet(name string) *ir.Application {
	return &ir.Application{Name: name, Kind: ir.AppletKind()}
}

func workflowCalling(name string, callees ...string) *ir.Workflow {
	stages := make([]ir.Stage, len(callees))
	for i, c := range callees {
		stages[i] = ir.Stage{ID: c + "-stage", AppletName: c}
	}
	return &ir.Workflow{Name: name, Stages: stages}
}

func TestBundle_Seal(t *testing.T) {
	t.Run("Should order every callee before its caller", func(t *testing.T) {
		b := bundle.New()
		b.Add(applet("align"))
		b.Add(applet("sort"))
		b.Add(workflowCalling("pipeline", "align", "sort"))
		b.SetPrimary("pipeline")

		require.NoError(t, b.Seal())
		deps := b.Dependencies()
		require.Len(t, deps, 3)
		assert.Equal(t, "pipeline", deps[len(deps)-1])

		pos := make(map[string]int, len(deps))
		for i, name := range deps {
			pos[name] = i
		}
		assert.Less(t, pos["align"], pos["pipeline"])
		assert.Less(t, pos["sort"], pos["pipeline"])
	})

	t.Run("Should visit a shared callee only once", func(t *testing.T) {
		b := bundle.New()
		b.Add(applet("shared"))
		b.Add(workflowCalling("a", "shared"))
		b.Add(workflowCalling("top", "a", "shared"))
		b.SetPrimary("top")

		require.NoError(t, b.Seal())
		deps := b.Dependencies()
		count := 0
		for _, name := range deps {
			if name == "shared" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("Should report a cyclic workflow reference as UnsupportedConstruct", func(t *testing.T) {
		b := bundle.New()
		b.Add(workflowCalling("a", "b"))
		b.Add(workflowCalling("b", "a"))
		b.SetPrimary("a")

		err := b.Seal()
		require.Error(t, err)
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.ErrorUnsupportedConstruct, kind)
	})

	t.Run("Should reject a primary callable that was never added", func(t *testing.T) {
		b := bundle.New()
		b.Add(applet("align"))
		b.SetPrimary("nonexistent")

		err := b.Seal()
		require.Error(t, err)
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.ErrorInternal, kind)
	})

	t.Run("Should include callables unreachable from the primary", func(t *testing.T) {
		b := bundle.New()
		b.Add(applet("align"))
		b.Add(applet("orphan"))
		b.Add(workflowCalling("pipeline", "align"))
		b.SetPrimary("pipeline")

		require.NoError(t, b.Seal())
		assert.Contains(t, b.Dependencies(), "orphan")
	})
}

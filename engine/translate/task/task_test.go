package task

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/source"
	"github.com/compozy/wfc/engine/source/celfixture"
	"github.com/compozy/wfc/pkg/config"
)

func newEnv(t *testing.T, vars map[string]core.Type) *celfixture.Env {
	t.Helper()
	env, err := celfixture.NewEnv(vars)
	require.NoError(t, err)
	return env
}

func TestTranslateInputs(t *testing.T) {
	t.Run("Should keep a const-folding non-path default", func(t *testing.T) {
		env := newEnv(t, nil)
		params, err := translateInputs([]source.TypedInput{
			{Name: "greeting", Type: core.String(), Default: celfixture.Expr(`"hi"`)},
		}, env)
		require.NoError(t, err)
		require.Len(t, params, 1)
		require.NotNil(t, params[0].Default)
		assert.Equal(t, "hi", params[0].Default.String)
	})

	t.Run("Should omit a default that does not const-fold", func(t *testing.T) {
		env := newEnv(t, map[string]core.Type{"unbound": core.Int()})
		params, err := translateInputs([]source.TypedInput{
			{Name: "n", Type: core.Int(), Default: celfixture.Expr("unbound")},
		}, env)
		require.NoError(t, err)
		require.Len(t, params, 1)
		assert.Nil(t, params[0].Default)
	})

	t.Run("Should leave Default nil when no default was declared", func(t *testing.T) {
		env := newEnv(t, nil)
		params, err := translateInputs([]source.TypedInput{{Name: "n", Type: core.Int()}}, env)
		require.NoError(t, err)
		assert.Nil(t, params[0].Default)
	})
}

func TestIsLocalPath(t *testing.T) {
	t.Run("Should treat a schemeless file URI as a local path", func(t *testing.T) {
		assert.True(t, isLocalPath(core.FileValue("./local/data.txt", "data.txt")))
	})
	t.Run("Should not treat a scheme-qualified file URI as a local path", func(t *testing.T) {
		assert.False(t, isLocalPath(core.FileValue("dx://project-1:file-1", "data.txt")))
	})
	t.Run("Should not treat a string value as a path at all", func(t *testing.T) {
		assert.False(t, isLocalPath(core.StringValue("./local/data.txt")))
	})
}

func TestTranslateInstanceType(t *testing.T) {
	opts := config.Default()

	t.Run("Should resolve a const instance name to StaticName", func(t *testing.T) {
		env := newEnv(t, nil)
		it, err := translateInstanceType(
			source.ResourceHints{InstanceName: celfixture.Expr(`"mem2_ssd1_x4"`)}, env, opts,
		)
		require.NoError(t, err)
		assert.Equal(t, "StaticName", string(it.Kind))
		assert.Equal(t, "mem2_ssd1_x4", it.InstanceName)
	})

	t.Run("Should resolve all-const resource hints to StaticResources", func(t *testing.T) {
		env := newEnv(t, nil)
		it, err := translateInstanceType(source.ResourceHints{
			CPU:      celfixture.Expr("2.0"),
			MemoryMB: celfixture.Expr("4096"),
			DiskGB:   celfixture.Expr("20"),
		}, env, opts)
		require.NoError(t, err)
		assert.Equal(t, "StaticResources", string(it.Kind))
		assert.Equal(t, 2.0, it.Resources.CPU)
		assert.Equal(t, int64(4096), it.Resources.MemoryMB)
	})

	t.Run("Should fall back to Dynamic when a hint does not const-fold", func(t *testing.T) {
		env := newEnv(t, map[string]core.Type{"mem": core.Int()})
		it, err := translateInstanceType(source.ResourceHints{
			MemoryMB: celfixture.Expr("mem"),
		}, env, opts)
		require.NoError(t, err)
		assert.Equal(t, "Dynamic", string(it.Kind))
	})

	t.Run("Should force Dynamic under instanceTypeSelection=dynamic even when all-const", func(t *testing.T) {
		dynOpts := config.Default()
		dynOpts.InstanceTypeSelection = config.InstanceTypeDynamic
		env := newEnv(t, nil)
		it, err := translateInstanceType(source.ResourceHints{
			CPU: celfixture.Expr("1.0"),
		}, env, dynOpts)
		require.NoError(t, err)
		assert.Equal(t, "Dynamic", string(it.Kind))
	})

	t.Run("Should use configured runtime defaults when nothing is specified", func(t *testing.T) {
		env := newEnv(t, nil)
		it, err := translateInstanceType(source.ResourceHints{}, env, opts)
		require.NoError(t, err)
		assert.Equal(t, "Default", string(it.Kind))
		assert.Equal(t, opts.DefaultRuntimeAttrs.MemoryMB, it.Resources.MemoryMB)
	})
}

func TestTranslateContainer(t *testing.T) {
	env := newEnv(t, nil)

	t.Run("Should return NoImage when no docker ref was declared", func(t *testing.T) {
		c, err := translateContainer(nil, env)
		require.NoError(t, err)
		assert.Equal(t, "NoImage", string(c.Kind))
	})

	t.Run("Should recognize a platform-file URI", func(t *testing.T) {
		c, err := translateContainer(celfixture.Expr(`"dx://project-xxxx:file-yyyy"`), env)
		require.NoError(t, err)
		assert.Equal(t, "PlatformFileImage", string(c.Kind))
		assert.Equal(t, "dx://project-xxxx:file-yyyy", c.URI)
	})

	t.Run("Should treat anything else as a network image reference", func(t *testing.T) {
		c, err := translateContainer(celfixture.Expr(`"ubuntu:22.04"`), env)
		require.NoError(t, err)
		assert.Equal(t, "NetworkImage", string(c.Kind))
		assert.Equal(t, "ubuntu:22.04", c.Ref)
	})

	t.Run("Should reject a docker ref that does not const-fold", func(t *testing.T) {
		dynEnv := newEnv(t, map[string]core.Type{"image": core.String()})
		_, err := translateContainer(celfixture.Expr("image"), dynEnv)
		require.Error(t, err)
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.ErrorUnsupportedConstruct, kind)
	})
}

func TestTranslate(t *testing.T) {
	t.Run("Should lower a full typed task into an Application", func(t *testing.T) {
		env := newEnv(t, nil)
		opts := config.Default()
		opts.CompilerVersion = "1.2.3"

		tt := &source.TypedTask{
			Name: "align_reads",
			Inputs: []source.TypedInput{
				{Name: "threads", Type: core.Int(), Default: celfixture.Expr("4")},
			},
			Outputs: []source.TypedOutput{
				{Name: "bam", Type: core.File()},
			},
			Resources: source.ResourceHints{
				CPU:      celfixture.Expr("4.0"),
				MemoryMB: celfixture.Expr("16384"),
				DiskGB:   celfixture.Expr("100"),
			},
			DockerRef:  celfixture.Expr(`"quay.io/biocontainers/align:1.0"`),
			SourceText: "task align_reads { ... }",
		}

		app, err := Translate(tt, env, opts)
		require.NoError(t, err)
		assert.Equal(t, "align_reads", app.Name)
		require.Len(t, app.Inputs, 1)
		require.NotNil(t, app.Inputs[0].Default)
		assert.Equal(t, int64(4), app.Inputs[0].Default.Int)
		require.Len(t, app.Outputs, 1)
		assert.Equal(t, "StaticResources", string(app.InstanceType.Kind))
		assert.Equal(t, "NetworkImage", string(app.Container.Kind))
		assert.Equal(t, "1.2.3", app.Attributes["compilerVersion"])

		gz, err := base64.StdEncoding.DecodeString(app.DocumentSource)
		require.NoError(t, err)
		r, err := gzip.NewReader(bytes.NewReader(gz))
		require.NoError(t, err)
		decoded, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, tt.SourceText, string(decoded))
	})
}

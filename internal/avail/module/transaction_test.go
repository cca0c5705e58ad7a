package module_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/module"
	"github.com/dekarrin/avail/internal/avail/primitives"
	"github.com/dekarrin/avail/internal/avail/runtime"
	"github.com/dekarrin/avail/internal/avail/semver"
	"github.com/dekarrin/avail/internal/avail/serializer"
)

func noopPublish() serializer.CompiledFunction {
	return serializer.CompiledFunction{Name: "$publish_test"}
}

func TestTransaction_ApplyHeader_DeclaresOwnNames(t *testing.T) {
	rt := runtime.New()
	tx := module.Begin(rt)

	h := &module.Header{ModuleName: "Arithmetic", Names: []string{"_+_"}}
	err := tx.ApplyHeader(h, semver.DeclaredVersions{"0.1.0"})
	require.NoError(t, err)
}

func TestTransaction_ApplyHeader_RejectsUnresolvedImport(t *testing.T) {
	rt := runtime.New()
	tx := module.Begin(rt)

	h := &module.Header{ModuleName: "Dependent", Extends: []module.Import{{Name: "NotCommittedYet"}}}
	err := tx.ApplyHeader(h, semver.DeclaredVersions{"0.1.0"})
	assert.Error(t, err)
}

func TestTransaction_ApplyHeader_RejectsUnsatisfiedVersionClause(t *testing.T) {
	rt := runtime.New()

	// commit a base module first, so the import itself resolves
	base := module.Begin(rt)
	require.NoError(t, base.ApplyHeader(&module.Header{ModuleName: "Base", Names: []string{"_+_"}}, semver.DeclaredVersions{"0.1.0"}))
	_, err := base.Commit(serializer.NewStream(), noopPublish())
	require.NoError(t, err)

	dependent := module.Begin(rt)
	h := &module.Header{ModuleName: "Dependent", Extends: []module.Import{{Name: "Base", Versions: []string{">=9.0"}}}}
	err = dependent.ApplyHeader(h, semver.DeclaredVersions{"0.1.0"})
	assert.Error(t, err)
}

func TestTransaction_ApplyPragmas_InstallsPrimitiveAndGrowsBundleTree(t *testing.T) {
	rt := runtime.New()
	tx := module.Begin(rt)

	h := &module.Header{
		ModuleName: "Arithmetic",
		Pragmas: []module.Pragma{
			{Kind: "method", PrimitiveNumber: primitives.PrimAdd, Name: "_+_"},
		},
	}
	require.NoError(t, tx.ApplyHeader(h, semver.DeclaredVersions{"0.1.0"}))

	prims := primitives.NewTable(nil)
	require.NoError(t, tx.ApplyPragmas(prims))

	rec, err := tx.Commit(serializer.NewStream(), noopPublish())
	require.NoError(t, err)
	assert.Contains(t, rec.Methods, "_+_")
}

func TestTransaction_ApplyPragmas_UnknownPrimitiveNumberIsError(t *testing.T) {
	rt := runtime.New()
	tx := module.Begin(rt)

	h := &module.Header{
		ModuleName: "Bad",
		Pragmas: []module.Pragma{
			{Kind: "method", PrimitiveNumber: 9999, Name: "_+_"},
		},
	}
	require.NoError(t, tx.ApplyHeader(h, semver.DeclaredVersions{"0.1.0"}))

	prims := primitives.NewTable(nil)
	assert.Error(t, tx.ApplyPragmas(prims))
}

func TestTransaction_Commit_FailsWithUnresolvedForwardDeclaration(t *testing.T) {
	rt := runtime.New()
	tx := module.Begin(rt)
	require.NoError(t, tx.ApplyHeader(&module.Header{ModuleName: "Forward"}, semver.DeclaredVersions{"0.1.0"}))

	tx.MarkForward("_laterDefined_")
	_, err := tx.Commit(serializer.NewStream(), noopPublish())
	assert.Error(t, err)

	tx.ResolveForward("_laterDefined_")
	_, err = tx.Commit(serializer.NewStream(), noopPublish())
	assert.NoError(t, err)
}

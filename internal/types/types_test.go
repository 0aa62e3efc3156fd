package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeInfo_ForceSucceedsOnConcreteType(t *testing.T) {
	t.Parallel()

	typ := New("string")
	require.NoError(t, typ.Force())
	require.Equal(t, "string", typ.Name())
	require.False(t, typ.IsMissing())
}

func TestTypeInfo_ForceSurfacesMissingType(t *testing.T) {
	t.Parallel()

	typ := Missing("could not infer lambda return type")
	err := typ.Force()
	require.Error(t, err)

	var missingErr *MissingTypeError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "could not infer lambda return type", missingErr.Reason)
}

func TestBasicSerializerFactory_CreatesForConcreteType(t *testing.T) {
	t.Parallel()

	ser, err := BasicSerializerFactory{}.Create(New("long"))
	require.NoError(t, err)
	require.Equal(t, "long", ser.TypeName())
	require.False(t, ser.IsZero())
}

func TestBasicSerializerFactory_FailsOnMissingType(t *testing.T) {
	t.Parallel()

	_, err := BasicSerializerFactory{}.Create(Missing("no output type"))
	require.Error(t, err)
}

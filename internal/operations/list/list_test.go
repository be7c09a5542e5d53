package list

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/aws/s3/s3types"
	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/testutil"
)

func TestLister_AllPages(t *testing.T) {
	mem := testutil.NewMemoryS3("bucket")
	for i := range 2500 {
		mem.Seed("bucket", fmt.Sprintf("p/%04d", i), []byte("x"))
	}
	mem.Seed("bucket", "q/other", []byte("x"))

	objects, err := New(mem).All(context.Background(), "bucket", "p/")
	require.NoError(t, err)
	require.Len(t, objects, 2500)
	assert.Equal(t, "p/0000", objects[0].Key)
	assert.Equal(t, "p/2499", objects[2499].Key)
	assert.Equal(t, int64(1), objects[0].Size)
	assert.Equal(t, 3, mem.Lists())
}

func TestLister_EachStopsOnError(t *testing.T) {
	mem := testutil.NewMemoryS3("bucket")
	mem.Seed("bucket", "a", []byte("x"))
	mem.Seed("bucket", "b", []byte("x"))

	stop := fmt.Errorf("stop")
	var seen int
	err := New(mem).Each(context.Background(), "bucket", "", func(s3types.Object) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

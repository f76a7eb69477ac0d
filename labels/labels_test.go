package labels

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCOCOLayout(t *testing.T) {
	assert.Equal(t, 81, COCO.Len())
	assert.Equal(t, 80, COCONoBackground.Len())

	bg, err := COCO.Label(0)
	require.NoError(t, err)
	assert.Equal(t, "__background__", bg)

	car, err := COCO.Label(3)
	require.NoError(t, err)
	assert.Equal(t, "car", car)

	car, err = COCONoBackground.Label(2)
	require.NoError(t, err)
	assert.Equal(t, "car", car)
}

func TestLabelOutOfRange(t *testing.T) {
	_, err := COCO.Label(81)
	assert.Error(t, err)
	_, err = COCO.Label(-1)
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	idx, err := COCO.Index("toothbrush")
	require.NoError(t, err)
	assert.Equal(t, 80, idx)

	_, err = COCO.Index("unicorn")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	s, err := Lookup("coco")
	require.NoError(t, err)
	assert.Same(t, COCO, s)

	_, err = Lookup("voc")
	assert.True(t, errors.Is(err, ErrUnknownSet))
}

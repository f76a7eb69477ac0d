package main

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-segdecode/detection"
	"github.com/nvr-ai/go-segdecode/tensor"
)

func TestParseShape(t *testing.T) {
	dims, err := parseShape("100, 28,28")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 28, 28}, dims)

	for _, bad := range []string{"", "10,x", "-1,6", "6,,6"} {
		_, err := parseShape(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFrame(t *testing.T) {
	p, err := parseFrame("1280X720")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1280, 720), p)

	for _, bad := range []string{"1280", "0x10", "ax10", "10x-1"} {
		_, err := parseFrame(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadTensorAndWriteMask(t *testing.T) {
	dir := t.TempDir()

	detPath := filepath.Join(dir, "dets.bin")
	require.NoError(t, os.WriteFile(detPath, tensor.EncodeFloat32([]float32{0.1, 0.2, 0.6, 0.8, 3, 0.95}, tensor.LittleEndian), 0o600))
	maskPath := filepath.Join(dir, "masks.bin")
	require.NoError(t, os.WriteFile(maskPath, tensor.EncodeFloat32(make([]float32, 784), tensor.LittleEndian), 0o600))

	dets, err := readTensor(detPath, "1,6", tensor.Float32, tensor.LittleEndian)
	require.NoError(t, err)
	masks, err := readTensor(maskPath, "1,28,28", tensor.Float32, tensor.LittleEndian)
	require.NoError(t, err)

	results, err := detection.Decode(dets, masks)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Mask)

	out := filepath.Join(dir, "out")
	path, err := writeMask(out, results[0], image.Pt(100, 50))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "mask-0.png"), path)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	// 0.6 x 0.5 of a 100x50 frame.
	assert.Equal(t, image.Pt(60, 25), img.Bounds().Size())

	raw, err := writeMask(out, results[0], image.Point{})
	require.NoError(t, err)
	img, err = imaging.Open(raw)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(28, 28), img.Bounds().Size())
}

func TestReadTensorErrors(t *testing.T) {
	_, err := readTensor(filepath.Join(t.TempDir(), "missing.bin"), "1,6", tensor.Float32, tensor.LittleEndian)
	assert.Error(t, err)

	_, err = readTensor("unused", "", tensor.Float32, tensor.LittleEndian)
	assert.Error(t, err)
}

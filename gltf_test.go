package morphfx

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packVec3s(vs []mgl32.Vec3) []byte {
	buf := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		for c := 0; c < 3; c++ {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[c]))
		}
	}
	return buf
}

func gltfWithPositions(vs []mgl32.Vec3) []byte {
	bin := packVec3s(vs)
	doc := fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": %d, "type": "VEC3"}],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": %d}],
		"buffers": [{"uri": "data:application/octet-stream;base64,%s", "byteLength": %d}]
	}`, len(vs), len(bin), base64.StdEncoding.EncodeToString(bin), len(bin))
	return []byte(doc)
}

func glbWithChunks(magic, version uint32, jsonChunk, binChunk []byte) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, magic)
	binary.Write(&out, binary.LittleEndian, version)
	total := uint32(12)
	if jsonChunk != nil {
		total += 8 + uint32(len(jsonChunk))
	}
	if binChunk != nil {
		total += 8 + uint32(len(binChunk))
	}
	binary.Write(&out, binary.LittleEndian, total)
	if jsonChunk != nil {
		binary.Write(&out, binary.LittleEndian, uint32(len(jsonChunk)))
		binary.Write(&out, binary.LittleEndian, uint32(glbChunkJSON))
		out.Write(jsonChunk)
	}
	if binChunk != nil {
		binary.Write(&out, binary.LittleEndian, uint32(len(binChunk)))
		binary.Write(&out, binary.LittleEndian, uint32(glbChunkBIN))
		out.Write(binChunk)
	}
	return out.Bytes()
}

func TestParseShapeVertices_DataURI(t *testing.T) {
	want := []mgl32.Vec3{{1, 2, 3}, {-0.5, 0, 4.25}, {0, 0, 0}}
	got, err := ParseShapeVertices(bytes.NewReader(gltfWithPositions(want)), false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseShapeVertices_GLB(t *testing.T) {
	want := []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}}
	bin := packVec3s(want)
	jsonChunk := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": %d, "type": "VEC3"}],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": %d}],
		"buffers": [{"byteLength": %d}]
	}`, len(want), len(bin), len(bin)))

	data := glbWithChunks(glbMagic, glbVersion, jsonChunk, bin)
	got, err := ParseShapeVertices(bytes.NewReader(data), true)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseShapeVertices_GLBErrors(t *testing.T) {
	jsonChunk := []byte(`{"asset": {"version": "2.0"}}`)

	_, err := ParseShapeVertices(bytes.NewReader(glbWithChunks(0xDEADBEEF, glbVersion, jsonChunk, nil)), true)
	assert.ErrorIs(t, err, errInvalidGLBMagic)

	_, err = ParseShapeVertices(bytes.NewReader(glbWithChunks(glbMagic, 1, jsonChunk, nil)), true)
	assert.ErrorIs(t, err, errInvalidGLBVersion)

	_, err = ParseShapeVertices(bytes.NewReader(glbWithChunks(glbMagic, glbVersion, nil, []byte{1, 2, 3, 4})), true)
	assert.ErrorIs(t, err, errMissingJSONChunk)
}

func TestParseShapeVertices_WrongVersion(t *testing.T) {
	doc := []byte(`{"asset": {"version": "1.0"}}`)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)
}

func TestParseShapeVertices_NoPositions(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"NORMAL": 0}}]}]
	}`)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errNoPositions)
}

func TestParseShapeVertices_TruncatedBuffer(t *testing.T) {
	vs := []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}}
	doc := gltfWithPositions(vs)
	// Claim one vertex more than the buffer holds.
	doc = bytes.Replace(doc, []byte(`"count": 2`), []byte(`"count": 3`), 1)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errBufferSizeMismatch)
}

// Index and offset fields come straight from untrusted JSON; a malformed
// shape file must surface as an error, never as a panic, so the caller can
// fall back to the generated shape.
func TestParseShapeVertices_BufferViewOutOfRange(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 7, "componentType": 5126, "count": 1, "type": "VEC3"}],
		"bufferViews": []
	}`)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errBufferViewOutOfRange)
}

func TestParseShapeVertices_BufferIndexOutOfRange(t *testing.T) {
	doc := []byte(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 1, "type": "VEC3"}],
		"bufferViews": [{"buffer": 3, "byteOffset": 0, "byteLength": 12}]
	}`)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errBufferViewOutOfRange)
}

func TestParseShapeVertices_NegativeByteOffset(t *testing.T) {
	doc := gltfWithPositions([]mgl32.Vec3{{1, 2, 3}})
	doc = bytes.Replace(doc, []byte(`"byteOffset": 0`), []byte(`"byteOffset": -4096`), 1)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errNegativeByteOffset)
}

func TestParseShapeVertices_NegativeByteStride(t *testing.T) {
	doc := gltfWithPositions([]mgl32.Vec3{{1, 2, 3}})
	doc = bytes.Replace(doc, []byte(`"byteLength": 12}`), []byte(`"byteLength": 12, "byteStride": -16}`), 1)
	_, err := ParseShapeVertices(bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, errNegativeByteOffset)
}

// Interleaved vertex data: positions packed with a 4-byte pad between
// elements, addressed through byteStride.
func TestParseShapeVertices_HonorsByteStride(t *testing.T) {
	want := []mgl32.Vec3{{1, 2, 3}, {7, 8, 9}}
	buf := make([]byte, 0, 32)
	for _, v := range want {
		for c := 0; c < 3; c++ {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[c]))
		}
		buf = binary.LittleEndian.AppendUint32(buf, 0xFFFFFFFF) // pad
	}

	doc := []byte(fmt.Sprintf(`{
		"asset": {"version": "2.0"},
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"accessors": [{"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC3"}],
		"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": %d, "byteStride": 16}],
		"buffers": [{"uri": "data:application/octet-stream;base64,%s", "byteLength": %d}]
	}`, len(buf), base64.StdEncoding.EncodeToString(buf), len(buf)))

	got, err := ParseShapeVertices(bytes.NewReader(doc), false)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

package morphfx

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Positions-only glTF 2.0 / GLB reader. The morph target is one mesh whose
// POSITION accessor supplies the assembly destinations; nothing else from the
// document is consumed.

var (
	errInvalidGLTFVersion   = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic      = errors.New("invalid GLB magic number")
	errInvalidGLBVersion    = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk     = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI     = errors.New("invalid buffer URI")
	errBufferSizeMismatch   = errors.New("buffer size mismatch")
	errNoPositions          = errors.New("document has no POSITION accessor")
	errBufferViewOutOfRange = errors.New("bufferView reference out of range")
	errNegativeByteOffset   = errors.New("negative byte offset or stride")
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"

	componentTypeFloat = 5126
	accessorTypeVec3   = "VEC3"
)

type gltfDocument struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Meshes []struct {
		Primitives []struct {
			Attributes map[string]int `json:"attributes"`
		} `json:"primitives"`
	} `json:"meshes"`
	Accessors []struct {
		BufferView    *int   `json:"bufferView"`
		ByteOffset    int    `json:"byteOffset"`
		ComponentType int    `json:"componentType"`
		Count         int    `json:"count"`
		Type          string `json:"type"`
	} `json:"accessors"`
	BufferViews []struct {
		Buffer     int  `json:"buffer"`
		ByteOffset int  `json:"byteOffset"`
		ByteLength int  `json:"byteLength"`
		ByteStride *int `json:"byteStride"`
	} `json:"bufferViews"`
	Buffers []struct {
		URI        string `json:"uri"`
		ByteLength int    `json:"byteLength"`
		data       []byte
	} `json:"buffers"`
}

type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type glbChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

type gltfShapeReader struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// LoadShapeVertices reads the first POSITION accessor from a .gltf or .glb
// file and returns its vertices in file order.
func LoadShapeVertices(path string) ([]mgl32.Vec3, error) {
	r := &gltfShapeReader{baseDir: filepath.Dir(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic) {
		err = r.parseGLB(data)
	} else {
		err = r.parseGLTF(data)
	}
	if err != nil {
		return nil, err
	}

	return r.positions()
}

// ParseShapeVertices is LoadShapeVertices over an in-memory document; used
// for embedded shapes and tests.
func ParseShapeVertices(rd io.Reader, isGLB bool) ([]mgl32.Vec3, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	r := &gltfShapeReader{}
	if isGLB {
		err = r.parseGLB(data)
	} else {
		err = r.parseGLTF(data)
	}
	if err != nil {
		return nil, err
	}
	return r.positions()
}

func (r *gltfShapeReader) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	if err := r.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	r.document = &doc
	return nil
}

func (r *gltfShapeReader) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	rd := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(rd, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != glbMagic {
		return errInvalidGLBMagic
	}
	if header.Version != glbVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	var binData []byte

	for {
		var chunkHeader glbChunkHeader
		if err := binary.Read(rd, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(rd, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case glbChunkJSON:
			jsonData = chunkData
		case glbChunkBIN:
			binData = chunkData
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}
	r.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := r.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	r.document = &doc
	return nil
}

func (r *gltfShapeReader) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && r.glbBinaryChunk != nil {
				buf.data = r.glbBinaryChunk
				if len(buf.data) < buf.ByteLength {
					return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
				}
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		data, err := r.loadBufferURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.data = data

		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

func (r *gltfShapeReader) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return loadDataURI(uri)
	}

	fullPath := filepath.Join(r.baseDir, uri)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// loadDataURI decodes a base64 data URI: data:[<mediatype>][;base64],<data>
func loadDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, errInvalidBufferURI
	}

	header := uri[5:commaIdx]
	dataStr := uri[commaIdx+1:]

	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// positions returns the first mesh primitive's POSITION data, honoring the
// buffer view's byte stride for interleaved layouts.
func (r *gltfShapeReader) positions() ([]mgl32.Vec3, error) {
	doc := r.document

	accessorIndex := -1
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			if idx, ok := prim.Attributes["POSITION"]; ok {
				accessorIndex = idx
				break
			}
		}
		if accessorIndex >= 0 {
			break
		}
	}
	if accessorIndex < 0 {
		return nil, errNoPositions
	}
	if accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	acc := &doc.Accessors[accessorIndex]
	if acc.Type != accessorTypeVec3 || acc.ComponentType != componentTypeFloat {
		return nil, fmt.Errorf("POSITION accessor is not VEC3 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}
	if acc.BufferView == nil {
		return nil, errors.New("accessor has no bufferView")
	}
	if acc.Count < 0 {
		return nil, fmt.Errorf("accessor count %d is negative", acc.Count)
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor bufferView %d: %w", *acc.BufferView, errBufferViewOutOfRange)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView buffer %d: %w", bv.Buffer, errBufferViewOutOfRange)
	}
	if acc.ByteOffset < 0 || bv.ByteOffset < 0 {
		return nil, fmt.Errorf("accessor offset %d, view offset %d: %w", acc.ByteOffset, bv.ByteOffset, errNegativeByteOffset)
	}
	buf := &doc.Buffers[bv.Buffer]

	const elementSize = 12 // 3 * float32
	stride := elementSize
	if bv.ByteStride != nil {
		if *bv.ByteStride < 0 {
			return nil, fmt.Errorf("byteStride %d: %w", *bv.ByteStride, errNegativeByteOffset)
		}
		if *bv.ByteStride > 0 {
			stride = *bv.ByteStride
		}
	}

	bufferOffset := bv.ByteOffset + acc.ByteOffset
	if need := bufferOffset + (acc.Count-1)*stride + elementSize; acc.Count > 0 && need > len(buf.data) {
		return nil, errBufferSizeMismatch
	}

	result := make([]mgl32.Vec3, acc.Count)
	for i := 0; i < acc.Count; i++ {
		off := bufferOffset + i*stride
		result[i] = mgl32.Vec3{
			float32frombits(buf.data[off : off+4]),
			float32frombits(buf.data[off+4 : off+8]),
			float32frombits(buf.data[off+8 : off+12]),
		}
	}
	return result, nil
}

func float32frombits(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

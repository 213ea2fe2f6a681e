package render

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
)

// Binary little-endian PLY export of colored reconstructions: float32
// positions, uchar RGB per vertex, triangle faces. PLY is the only format
// here that keeps the synthesized property coloring.

// CreatePLY writes a reconstructed mesh to a PLY file.
func CreatePLY(path string, m ColoredMesh) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WritePLY(file, m)
}

// WritePLY writes a reconstructed mesh to w in binary little-endian PLY.
// Colors must either be empty (vertices are written white) or match the
// vertex count.
func WritePLY(w io.Writer, m ColoredMesh) error {
	if len(m.Vertices) == 0 {
		return errors.New("empty vertex slice")
	}
	if len(m.Colors) != 0 && len(m.Colors) != len(m.Vertices) {
		return fmt.Errorf("got %d colors for %d vertices", len(m.Colors), len(m.Vertices))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", len(m.Vertices))
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property uchar red\nproperty uchar green\nproperty uchar blue\n")
	fmt.Fprintf(bw, "element face %d\n", len(m.Faces))
	fmt.Fprintf(bw, "property list uchar int vertex_indices\n")
	fmt.Fprintf(bw, "end_header\n")

	var b [15]byte
	for i, v := range m.Vertices {
		p := [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		if bad3F32(p) {
			return fmt.Errorf("inf/NaN vertex %d", i)
		}
		put3F32(b[:], p)
		r, g, bl := uint8(255), uint8(255), uint8(255)
		if len(m.Colors) != 0 {
			c := m.Colors[i]
			r, g, bl = c.R, c.G, c.B
		}
		b[12], b[13], b[14] = r, g, bl
		if _, err := bw.Write(b[:15]); err != nil {
			return err
		}
	}
	for i, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", i, vi, len(m.Vertices))
			}
		}
		b[0] = 3
		binary.LittleEndian.PutUint32(b[1:], uint32(f[0]))
		binary.LittleEndian.PutUint32(b[5:], uint32(f[1]))
		binary.LittleEndian.PutUint32(b[9:], uint32(f[2]))
		if _, err := bw.Write(b[:13]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// readBinaryPLY reads back a mesh written by WritePLY. It understands only
// that exact layout; it exists for round-trip testing.
func readBinaryPLY(r io.Reader) (ColoredMesh, error) {
	var m ColoredMesh
	br := bufio.NewReader(r)
	var nv, nf int
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return m, fmt.Errorf("PLY header read failed: %w", err)
		}
		switch {
		case line == "end_header\n":
		case line == "ply\n", line == "format binary_little_endian 1.0\n":
			continue
		default:
			fmt.Sscanf(line, "element vertex %d", &nv)
			fmt.Sscanf(line, "element face %d", &nf)
			continue
		}
		break
	}
	if nv == 0 {
		return m, errors.New("PLY header indicates 0 vertices")
	}
	var b [15]byte
	for i := 0; i < nv; i++ {
		if _, err := io.ReadFull(br, b[:15]); err != nil {
			return m, err
		}
		var p [3]float32
		get3F32(b[:], &p)
		m.Vertices = append(m.Vertices, r3From3F32(p))
		m.Colors = append(m.Colors, color.NRGBA{R: b[12], G: b[13], B: b[14], A: 255})
	}
	for i := 0; i < nf; i++ {
		if _, err := io.ReadFull(br, b[:13]); err != nil {
			return m, err
		}
		if b[0] != 3 {
			return m, fmt.Errorf("face %d has %d vertices, want 3", i, b[0])
		}
		m.Faces = append(m.Faces, [3]int{
			int(int32(binary.LittleEndian.Uint32(b[1:]))),
			int(int32(binary.LittleEndian.Uint32(b[5:]))),
			int(int32(binary.LittleEndian.Uint32(b[9:]))),
		})
	}
	return m, nil
}

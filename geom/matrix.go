package geom

// Matrix3 is a fixed-size 3x3 matrix of float64, row-major.
type Matrix3 [3][3]float64

// MulVector applies the matrix to a vector.
func (m Matrix3) MulVector(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns m * n.
func (m Matrix3) Mul(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Transposed returns the transpose of m.
func (m Matrix3) Transposed() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Matrix4 is a fixed-size 4x4 matrix of float64, row-major, used for
// instanced-mesh transforms.
type Matrix4 [4][4]float64

// IdentityMatrix4 returns the 4x4 identity.
func IdentityMatrix4() Matrix4 {
	var m Matrix4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// TransformPoint applies the affine transform to a point (w = 1).
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// TransformDirection applies the linear part of the transform (w = 0).
func (m Matrix4) TransformDirection(d Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*d.X + m[0][1]*d.Y + m[0][2]*d.Z,
		Y: m[1][0]*d.X + m[1][1]*d.Y + m[1][2]*d.Z,
		Z: m[2][0]*d.X + m[2][1]*d.Y + m[2][2]*d.Z,
	}
}

// Mul returns m * n.
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[i][k] * n[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// DynamicMatrix is a dense row-major matrix of float32, used for spherical
// harmonic rotation bands and panning matrices. The zero value is unusable;
// construct with NewDynamicMatrix.
type DynamicMatrix struct {
	Rows, Cols int
	data       []float32
}

// NewDynamicMatrix allocates a rows x cols matrix of zeros.
func NewDynamicMatrix(rows, cols int) *DynamicMatrix {
	return &DynamicMatrix{Rows: rows, Cols: cols, data: make([]float32, rows*cols)}
}

// At returns the element at (i, j).
func (m *DynamicMatrix) At(i, j int) float32 {
	return m.data[i*m.Cols+j]
}

// Set assigns the element at (i, j).
func (m *DynamicMatrix) Set(i, j int, v float32) {
	m.data[i*m.Cols+j] = v
}

// Row returns a view of row i.
func (m *DynamicMatrix) Row(i int) []float32 {
	return m.data[i*m.Cols : (i+1)*m.Cols]
}

// Data returns the backing slice, row-major.
func (m *DynamicMatrix) Data() []float32 {
	return m.data
}

// Zero sets every element to 0.
func (m *DynamicMatrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// MulInto computes out = m * n. Shapes must agree: m is (r x k), n is
// (k x c), out is (r x c). out may not alias m or n.
func MulInto(m, n, out *DynamicMatrix) {
	for i := 0; i < m.Rows; i++ {
		mRow := m.Row(i)
		outRow := out.Row(i)
		for j := range outRow {
			outRow[j] = 0
		}
		for k := 0; k < m.Cols; k++ {
			a := mRow[k]
			if a == 0 {
				continue
			}
			nRow := n.Row(k)
			for j := 0; j < n.Cols; j++ {
				outRow[j] += a * nRow[j]
			}
		}
	}
}

// MulVectorInto computes out = m * v for a column vector v of length m.Cols.
func (m *DynamicMatrix) MulVectorInto(v, out []float32) {
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)
		var s float32
		for j, a := range row {
			s += a * v[j]
		}
		out[i] = s
	}
}

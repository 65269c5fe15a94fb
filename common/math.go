package common

import (
	"math"
	"unsafe"
)

// Mat4 is a 4x4 matrix in column-major order, matching WebGPU and WGSL layout.
// Values are uploaded to uniform buffers as-is via SliceToBytes.
type Mat4 [16]float32

// Vec3 is a 3-component vector used for camera math.
type Vec3 struct {
	X, Y, Z float32
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// The returned slice shares memory with the input.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// Identity returns the identity matrix.
//
// Returns:
//   - Mat4: the 4x4 identity matrix
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Mul4 multiplies two matrices and returns a * b.
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Mat4: the product a * b
func Mul4(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Perspective returns a perspective projection matrix targeting the WebGPU
// clip-space depth range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance, greater than 0
//   - far: far clipping plane distance, greater than near
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

func (v Vec3) sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) normalized() Vec3 {
	sq := float64(v.dot(v))
	if sq == 0 {
		return v
	}
	inv := 1.0 / float32(math.Sqrt(sq))
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// LookAt returns a view matrix transforming world coordinates to camera space.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: up direction, typically {0, 1, 0}
//
// Returns:
//   - Mat4: the view matrix
func LookAt(eye, center, up Vec3) Mat4 {
	z := eye.sub(center).normalized()
	x := up.cross(z).normalized()
	y := z.cross(x)

	var m Mat4
	m[0], m[4], m[8], m[12] = x.X, x.Y, x.Z, -x.dot(eye)
	m[1], m[5], m[9], m[13] = y.X, y.Y, y.Z, -y.dot(eye)
	m[2], m[6], m[10], m[14] = z.X, z.Y, z.Z, -z.dot(eye)
	m[15] = 1
	return m
}

package domain

import "math"

// Vec3 — точка в пространстве уровня.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo возвращает расстояние до другой точки.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx, dy, dz := v.X-other.X, v.Y-other.Y, v.Z-other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Add возвращает сумму векторов.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Pose — позиция и ориентация (поворот вокруг вертикальной оси, в градусах).
type Pose struct {
	Position Vec3    `json:"position"`
	Yaw      float64 `json:"yaw"`
}

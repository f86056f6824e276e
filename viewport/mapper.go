package viewport

import "image"

// ScreenToPlane maps pixel p onto the plane. Pixels outside the resolution extrapolate linearly.
func (v *View) ScreenToPlane(p image.Point) Point {
	return v.ScreenToPlaneF(float64(p.X), float64(p.Y))
}

// ScreenToPlaneF is ScreenToPlane for sub-pixel positions
func (v *View) ScreenToPlaneF(x, y float64) Point {
	return Point{
		X: v.center.X - v.size.W/2 + x*v.size.W/float64(v.resolution.W),
		Y: v.center.Y - v.size.H/2 + y*v.size.H/float64(v.resolution.H),
	}
}

// PlaneToScreen is the inverse of ScreenToPlaneF
func (v *View) PlaneToScreen(q Point) (x, y float64) {
	x = (q.X - v.center.X + v.size.W/2) * float64(v.resolution.W) / v.size.W
	y = (q.Y - v.center.Y + v.size.H/2) * float64(v.resolution.H) / v.size.H
	return x, y
}

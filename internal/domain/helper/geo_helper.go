package helper

import "github.com/paulmach/orb"

// BlockBound ブロックが占める経緯度範囲を orb.Bound として返す
// Min がブロック原点（ブロックID・表示名の基準点）、Max がその対角
func BlockBound(ix, iy int) orb.Bound {
	return orb.Bound{
		Min: orb.Point{IndexToCoord(ix), IndexToCoord(iy)},
		Max: orb.Point{IndexToCoord(ix + 1), IndexToCoord(iy + 1)},
	}
}

// BlockOrigin ブロック原点（左上隅）の座標を orb.Point として返す
func BlockOrigin(ix, iy int) orb.Point {
	return orb.Point{IndexToCoord(ix), IndexToCoord(iy)}
}

package actor

// Material holds the surface and bulk properties of a geom. Several geoms may
// share one *Material.
type Material struct {
	Density     float64 // mass per unit area
	Restitution float64 // 0 = no rebound, 1 = perfect restitution
	Friction    float64 // Coulomb coefficient
}

// DefaultMaterial is used by geoms without a material.
var DefaultMaterial = Material{
	Density:     1.0,
	Restitution: 0.0,
	Friction:    0.4,
}

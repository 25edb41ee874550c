package catalog

// VaccinesCategory es el ancla taxonómica: los consumos de productos de esta
// categoría se clasifican como vacunaciones en el historial de cuidado.
const VaccinesCategory = "Vaccines"

// Service es un servicio del catálogo (consulta, grooming, etc.)
// que se adjunta a citas muchos-a-muchos.
type Service struct {
	ID    string
	Name  string
	Price float64
}

// Category agrupa productos del inventario.
type Category struct {
	ID   string
	Name string
}

// Product es un ítem de inventario consumible durante una cita.
type Product struct {
	ID         string
	Name       string
	Price      float64
	CategoryID string
}

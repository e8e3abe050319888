package catalog

import "github.com/shopspring/decimal"

// fallbackPerfumes is served whenever the upstream catalog is unusable.
var fallbackPerfumes = []Perfume{
	{
		ID:               "lattafa-yara",
		Name:             "Lattafa Yara",
		ShortDescription: "Fragancia con notas de Ananá tropical, Toque floral, Vainilla",
		Description:      "Una exquisita combinación de Ananá tropical, Toque floral, Vainilla, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(49000),
		Image:            "https://lattafa.al/cdn/shop/files/image_tpO.webp?v=1721595528",
		Notes:            notes("Ananá tropical", "Toque floral", "Vainilla"),
		Volume:           "100ml",
		IsNew:            true,
	},
	{
		ID:               "lattafa-badee",
		Name:             "Lattafa Bade'e Al Oud",
		ShortDescription: "Fragancia con notas de Oud (madera de agar), Azafrán, Nuez moscada",
		Description:      "Una exquisita combinación de Oud (madera de agar), Azafrán, Nuez moscada, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(50000),
		Image:            "https://m.media-amazon.com/images/I/61CZPc2+NXL._SL1000_.jpg",
		Notes:            notes("Oud (madera de agar)", "Azafrán", "Nuez moscada"),
		Volume:           "100ml",
		IsNew:            true,
	},
	{
		ID:               "lattafa-khamrah",
		Name:             "Lattafa Khamrah",
		ShortDescription: "Fragancia con notas de Whisky, Canela, Vainilla",
		Description:      "Una exquisita combinación de Whisky, Canela, Vainilla, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(54000),
		Image:            "https://avinari.cl/cdn/shop/files/o.fDr4cjowxjt-1_800x.jpg?v=1725747470",
		Notes:            notes("Whisky", "Canela", "Vainilla"),
		Volume:           "100ml",
		IsNew:            true,
	},
	{
		ID:               "al-haramain",
		Name:             "Amber Oud Gold Edition",
		ShortDescription: "Fragancia con notas de Ámbar, Melón dulce, Vainilla",
		Description:      "Una exquisita combinación de Ámbar, Melón dulce, Vainilla, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(93000),
		Image:            "https://aztra.pe/cdn/shop/files/resizedImg_1000x1000_2_3d2bf1d4-cb2a-4bb1-b181-8a81c6e766af.jpg?v=1737735497&width=1000",
		Notes:            notes("Ámbar", "Melón dulce", "Vainilla"),
		Volume:           "120ml",
		IsBestseller:     true,
	},
	{
		ID:               "armaf-club",
		Name:             "Club de Nuit Intense Man",
		ShortDescription: "Fragancia con notas de Piña, Abedul ahumado, Almizcle",
		Description:      "Una exquisita combinación de Piña, Abedul ahumado, Almizcle, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(62000),
		Image:            "https://m.media-amazon.com/images/I/61c7p6Q4PiL.jpg",
		Notes:            notes("Piña", "Abedul ahumado", "Almizcle"),
		Volume:           "100ml",
		IsBestseller:     true,
	},
	{
		ID:               "afnan-9pm",
		Name:             "Afnan 9PM",
		ShortDescription: "Fragancia con notas de manzana, canela, lavanda silvestre",
		Description:      "Una exquisita combinación de manzana, canela y lavanda silvestre, creando una experiencia olfativa única y sofisticada.",
		Price:            decimal.NewFromInt(64000),
		Image:            "https://i0.wp.com/scentadvisors.com/wp-content/uploads/2024/05/afnan-9pm.jpg?ssl=1",
		Notes:            notes("Manzana", "Canela", "Lavanda silvestre"),
		Volume:           "100ml",
		IsNew:            true,
	},
}

// Fallback returns a copy of the built-in catalog.
func Fallback() []Perfume {
	out := make([]Perfume, len(fallbackPerfumes))
	for i, p := range fallbackPerfumes {
		p.Notes = notes(p.Notes.Top[0], p.Notes.Middle[0], p.Notes.Base[0])
		out[i] = p
	}
	return out
}

func notes(top, middle, base string) Notes {
	return Notes{
		Top:    []string{top},
		Middle: []string{middle},
		Base:   []string{base},
	}
}

package entities

// Wire names follow the public API the mobile and web clients already consume,
// so JSON tags stay in Portuguese while Go identifiers are English.

const (
	// DefaultCategoryID is the "Geral" category assigned to saints without one.
	DefaultCategoryID uint = 11

	// PlaceholderImageURL replaces missing saint photos and pads galleries.
	PlaceholderImageURL = "https://via.placeholder.com/300?text=Santo"

	// MinGalleryImages is the minimum number of gallery images every saint keeps.
	MinGalleryImages = 3

	DefaultCategoryColor = "#FFF0D4"
	DefaultSaintColor    = "#FFFFFF"
)

type Category struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"size:100;not null" json:"nome"`
	Color  string  `gorm:"size:10" json:"corHex"`
	Saints []Saint `gorm:"foreignKey:CategoryID" json:"-"`
}

type Saint struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"index;size:256" json:"nome"`
	Title      string `gorm:"size:256" json:"titulo"`
	Birth      string `gorm:"size:100" json:"nascimento"`
	Death      string `gorm:"size:100" json:"falecimento"`
	FeastDay   string `gorm:"size:100" json:"festa"`
	History    string `gorm:"type:text" json:"historia"`
	PhotoURL   string `gorm:"size:2048" json:"fotoUrl"`
	Color      string `gorm:"size:10" json:"corHex"`
	IsNotable  bool   `gorm:"default:false" json:"ehFamoso"`
	CategoryID uint   `gorm:"index;not null" json:"categoriaId"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"categoria,omitempty"`

	// Child collections are owned by the saint and replaced as a unit.
	Miracles []Miracle      `gorm:"foreignKey:SaintID;constraint:OnDelete:CASCADE" json:"milagres"`
	Places   []Place        `gorm:"foreignKey:SaintID;constraint:OnDelete:CASCADE" json:"locais"`
	Images   []GalleryImage `gorm:"foreignKey:SaintID;constraint:OnDelete:CASCADE" json:"imagens"`
}

type Miracle struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:256" json:"titulo"`
	Description string `gorm:"type:text" json:"descricao"`
	SaintID     uint   `gorm:"index;not null" json:"santoId"`
}

type Place struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:256" json:"nomeLugar"` // e.g. "Assis, Itália"
	Description string `gorm:"type:text" json:"descricao"`
	SaintID     uint   `gorm:"index;not null" json:"santoId"`
}

type GalleryImage struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	URL     string `gorm:"size:2048" json:"url"`
	SaintID uint   `gorm:"index;not null" json:"santoId"`
}

func (Category) TableName() string {
	return "categories"
}

func (Saint) TableName() string {
	return "saints"
}

func (Miracle) TableName() string {
	return "miracles"
}

func (Place) TableName() string {
	return "places"
}

func (GalleryImage) TableName() string {
	return "gallery_images"
}

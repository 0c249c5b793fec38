package catalog

import (
	"strings"

	"github.com/mrlokans/santos/internal/entities"
	"github.com/mrlokans/santos/internal/utils"
)

// Normalize applies the catalog defaults to a new saint before it is
// stored: an empty or hex color is canonicalized (blank becomes
// entities.DefaultSaintColor), then NormalizeReplacement runs.
func Normalize(saint *entities.Saint) {
	saint.Color = utils.NormalizeHexColor(saint.Color)
	if saint.Color == "" {
		saint.Color = entities.DefaultSaintColor
	}
	NormalizeReplacement(saint)
}

// NormalizeReplacement applies the defaults shared by create and update.
// A missing category becomes "Geral", a blank photo becomes the placeholder,
// absent collections become empty and the gallery is padded to
// entities.MinGalleryImages. Child ids are cleared so the store assigns new
// ones. Other scalars, color included, are kept exactly as given.
func NormalizeReplacement(saint *entities.Saint) {
	if saint.CategoryID == 0 {
		saint.CategoryID = entities.DefaultCategoryID
	}
	if strings.TrimSpace(saint.PhotoURL) == "" {
		saint.PhotoURL = entities.PlaceholderImageURL
	}
	saint.Category = nil

	if saint.Miracles == nil {
		saint.Miracles = []entities.Miracle{}
	}
	if saint.Places == nil {
		saint.Places = []entities.Place{}
	}
	if saint.Images == nil {
		saint.Images = []entities.GalleryImage{}
	}

	for i := range saint.Miracles {
		saint.Miracles[i].ID = 0
		saint.Miracles[i].SaintID = saint.ID
	}
	for i := range saint.Places {
		saint.Places[i].ID = 0
		saint.Places[i].SaintID = saint.ID
	}
	for i := range saint.Images {
		saint.Images[i].ID = 0
		saint.Images[i].SaintID = saint.ID
	}

	for len(saint.Images) < entities.MinGalleryImages {
		saint.Images = append(saint.Images, entities.GalleryImage{
			URL:     entities.PlaceholderImageURL,
			SaintID: saint.ID,
		})
	}
}

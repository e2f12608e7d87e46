package render

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Load opens an image applying EXIF orientation
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "can't open image %s", path)
	}
	return img, nil
}

// Save writes image, format is taken from the file extension
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "can't save image %s", path)
	}
	return nil
}

//go:build !purego && !js

package main

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	cm "copymove/pkg/copymove"
)

func loadImage(path string) (image.Image, error) {
	src := gocv.IMRead(path, gocv.IMReadColor)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	return img, nil
}

func indexBuilder(native bool) (cm.IndexBuilder, error) {
	if native {
		return cm.NewBFMatcherIndex, nil
	}
	return cm.NewBruteForceIndex, nil
}

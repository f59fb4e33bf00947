//go:build js && wasm

package main

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"syscall/js"

	cm "copymove/pkg/copymove"
)

var lastResult *cm.DetectorResult

func main() {
	js.Global().Set("detectForgery", js.FuncOf(detectForgery))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	select {} // block forever
}

func detectForgery(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: detectForgery(featuresJSON, options)")
	}

	fd, err := cm.DecodeFeatureSet(strings.NewReader(args[0].String()))
	if err != nil {
		return errorResult("features parse error: " + err.Error())
	}

	params := cm.NewDetectorParams()
	if fd.Metric != "" {
		if params.Metric, err = cm.ParseMetric(fd.Metric); err != nil {
			return errorResult(err.Error())
		}
	}
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		if err := applyOptions(params, args[1]); err != nil {
			return errorResult(err.Error())
		}
	}

	result, err := cm.Detect(fd.Features, params)
	if err != nil {
		return errorResult("Detection error: " + err.Error())
	}
	lastResult = result

	m := len(result.Points1)
	jsPairs := make([]interface{}, m)
	for i := 0; i < m; i++ {
		jsPairs[i] = map[string]interface{}{
			"x1":     result.Points1[i].X,
			"y1":     result.Points1[i].Y,
			"x2":     result.Points2[i].X,
			"y2":     result.Points2[i].Y,
			"label1": result.Labels[i],
			"label2": result.Labels[m+i],
		}
	}

	jsRegions := make([]interface{}, len(result.Regions))
	for i, r := range result.Regions {
		labels := make([]interface{}, len(r.Labels))
		for j, l := range r.Labels {
			labels[j] = l
		}
		jsRegions[i] = map[string]interface{}{
			"labels": labels,
			"pairs":  r.Pairs,
			"side1":  []interface{}{r.Side1.Min.X(), r.Side1.Min.Y(), r.Side1.Max.X(), r.Side1.Max.Y()},
			"side2":  []interface{}{r.Side2.Min.X(), r.Side2.Min.Y(), r.Side2.Max.X(), r.Side2.Max.Y()},
		}
	}

	return js.ValueOf(map[string]interface{}{
		"tampered":   result.Tampered,
		"keypoints":  result.Metrics.Keypoints,
		"candidates": result.Metrics.Candidates,
		"clusters":   result.Metrics.Clusters,
		"pairs":      jsPairs,
		"regions":    jsRegions,
	})
}

func applyOptions(p *cm.DetectorParams, opts js.Value) error {
	if v := opts.Get("k"); v.Type() == js.TypeNumber {
		p.K = v.Int()
	}
	if v := opts.Get("ratio"); v.Type() == js.TypeNumber {
		p.Ratio = v.Float()
	}
	if v := opts.Get("minSeparation"); v.Type() == js.TypeNumber {
		p.MinSeparation = v.Float()
	}
	if v := opts.Get("threshold"); v.Type() == js.TypeNumber {
		p.InconsistencyThreshold = v.Float()
	}
	if v := opts.Get("depth"); v.Type() == js.TypeNumber {
		p.InconsistencyDepth = v.Int()
	}
	if v := opts.Get("noiseClusterSize"); v.Type() == js.TypeNumber {
		p.NoiseClusterSize = v.Int()
	}
	if v := opts.Get("linkage"); v.Type() == js.TypeString {
		m, err := cm.ParseLinkageMethod(v.String())
		if err != nil {
			return err
		}
		p.Linkage = m
	}
	if v := opts.Get("metric"); v.Type() == js.TypeString {
		m, err := cm.ParseMetric(v.String())
		if err != nil {
			return err
		}
		p.Metric = m
	}
	return nil
}

func renderOverlay(this js.Value, args []js.Value) interface{} {
	if lastResult == nil || len(args) < 1 {
		return js.Null()
	}

	jsBytes := args[0]
	imageBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(imageBytes, jsBytes)

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return js.Null()
	}

	jpegBytes, err := cm.RenderOverlayBytes(img, lastResult)
	if err != nil {
		return js.Null()
	}

	// Create Uint8Array and copy bytes
	uint8Array := js.Global().Get("Uint8Array").New(len(jpegBytes))
	js.CopyBytesToJS(uint8Array, jpegBytes)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}

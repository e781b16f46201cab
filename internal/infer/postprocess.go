package infer

import (
	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

// Detections thresholds a source-resolution score map into classified
// detection regions. Pixels scoring at or above threshold are grouped into
// 4-connected components; components smaller than minArea pixels are
// discarded as noise. Detections are returned in scan order with IDs
// assigned from 1, so identical inputs yield identical output.
func Detections(sm ScoreMap, threshold float64, minArea int) []model.Detection {
	visited := make([]bool, len(sm.Data))
	var dets []model.Detection

	for start := range sm.Data {
		if visited[start] || float64(sm.Data[start]) < threshold {
			continue
		}

		// Flood-fill one component, tracking its extent and peak score.
		minX, minY := sm.W, sm.H
		maxX, maxY := 0, 0
		peak := sm.Data[start]
		area := 0

		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%sm.W, idx/sm.W

			area++
			if v := sm.Data[idx]; v > peak {
				peak = v
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= sm.W || ny < 0 || ny >= sm.H {
					continue
				}
				nidx := ny*sm.W + nx
				if visited[nidx] || float64(sm.Data[nidx]) < threshold {
					continue
				}
				visited[nidx] = true
				stack = append(stack, nidx)
			}
		}

		if area < minArea {
			continue
		}

		box := model.BBox{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
		conf := float64(peak)
		if conf > 1 {
			conf = 1
		}
		dets = append(dets, model.Detection{
			ID:         len(dets) + 1,
			Type:       classifyRegion(box, conf, sm.W, sm.H),
			Confidence: conf,
			BBox:       box,
			Center:     box.Center(),
		})
	}
	return dets
}

// classifyRegion maps a region's geometry and confidence onto the fault
// taxonomy. Wide or tall elongated regions read as wire overloads, compact
// small regions as point overloads, and the rest as loose joints; the
// faulty/potential split follows confidence.
func classifyRegion(b model.BBox, conf float64, imgW, imgH int) string {
	span := float64(b.Width) / float64(imgW)
	aspect := float64(b.Width) / float64(b.Height)
	areaFrac := float64(b.Width*b.Height) / float64(imgW*imgH)

	switch {
	case span >= 0.8:
		return model.FaultFullWireOverload
	case aspect >= 3 || aspect <= 1.0/3.0:
		return model.FaultWireOverload
	case areaFrac <= 0.01:
		if conf >= 0.8 {
			return model.FaultPointOverloadFaulty
		}
		return model.FaultPointOverloadPotential
	default:
		if conf >= 0.8 {
			return model.FaultLooseJointFaulty
		}
		return model.FaultLooseJointPotential
	}
}

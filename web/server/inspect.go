package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/study-game-engines/raytracer-hacker/pkg/core"
	"github.com/study-game-engines/raytracer-hacker/pkg/geometry"
	"github.com/study-game-engines/raytracer-hacker/pkg/material"
	"github.com/study-game-engines/raytracer-hacker/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Properties   map[string]interface{} `json:"properties"`
}

// InspectResult describes the first surface hit by an inspection ray
type InspectResult struct {
	Hit      bool
	Surface  geometry.Surface
	Point    core.Vec3
	Normal   core.Vec3
	Distance float64
}

func triple(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255+0.5), int(c.Y*255+0.5), int(c.Z*255+0.5))
}

// extractMaterialInfo describes surface properties
func extractMaterialInfo(props material.Properties) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"color":        hexColor(props.Color),
		"albedo":       triple(props.Color),
		"reflectivity": props.Reflectivity,
		"reflective":   props.Class.IsReflective(),
	}
	if props.Class == material.ShinyAndTransparent {
		properties["transparency"] = props.Transparency
	}
	return props.Class.String(), properties
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(surface geometry.Surface) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := surface.(type) {
	case *geometry.Sphere:
		properties["center"] = triple(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	case *geometry.Triangle:
		vertices := geom.Vertices()
		properties["vertices"] = [3][3]float64{triple(vertices[0]), triple(vertices[1]), triple(vertices[2])}
		properties["faceNormal"] = triple(geom.FaceNormal())
		return "triangle", properties

	default:
		return "unknown", properties
	}
}

// inspectPixel casts a ray through the center of pixel (x, y) and returns the first surface it hits
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResult {
	camera := sceneObj.NewCamera()
	point := camera.PlanePoint(pixelX, pixelY)
	ray := camera.GetRay(point.X, point.Y)

	hit := sceneObj.Index.Nearest(ray)
	if !hit.Ok() {
		return InspectResult{Hit: false}
	}

	hitPoint := ray.At(hit.Distance)
	return InspectResult{
		Hit:      true,
		Surface:  hit.Surface,
		Point:    hitPoint,
		Normal:   hit.Surface.NormalAt(ray, hitPoint),
		Distance: hit.Distance,
	}
}

// handleInspect handles ray casting inspection requests against the current scene
func (s *Server) handleInspect(c echo.Context) error {
	job := s.currentJob()
	if job == nil {
		return errorResponse(c, http.StatusNotFound, "no scene loaded")
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid x coordinate")
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid y coordinate")
	}

	cfg := job.scene.Config
	if pixelX < 0 || pixelX >= cfg.Width || pixelY < 0 || pixelY >= cfg.Height {
		return errorResponse(c, http.StatusBadRequest, "Pixel coordinates out of bounds")
	}

	result := inspectPixel(job.scene, pixelX, pixelY)
	if !result.Hit {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false})
	}

	materialType, materialProps := extractMaterialInfo(result.Surface.Properties())
	geometryType, geometryProps := extractGeometryInfo(result.Surface)

	return c.JSON(http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        triple(result.Point),
		Normal:       triple(result.Normal),
		Distance:     result.Distance,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}

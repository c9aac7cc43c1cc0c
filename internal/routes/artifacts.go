package routes

import (
	"path"

	"github.com/google/uuid"
)

const (
	Image1Artifact   = "image1.png"
	Image2Artifact   = "image2.png"
	SequenceArtifact = "output.gif"

	output1Template = "out1.jpg"
	output2Template = "out2.jpg"
)

var knownArtifacts = map[string]struct{}{
	Image1Artifact:    {},
	Image2Artifact:    {},
	SequenceArtifact:  {},
	"out1_color1.jpg": {},
	"out2_color2.jpg": {},
	"out1_gray1.jpg":  {},
	"out2_gray2.jpg":  {},
}

func artifactKey(id string, artifact string) string {
	return path.Join("Comparison", id, artifact)
}

func artifactPath(id string, artifact string) string {
	return path.Join("/api/comparisons", id, artifact)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

package worker

import "github.com/tietracker/tiexport/internal/domain/entity"

// Message is posted to the export worker
type Message struct {
	Tag     string
	ID      string
	Request *entity.ExportRequest
}

// Response is emitted by the export worker, correlated by ID
type Response struct {
	Tag      string
	ID       string
	Artifact *entity.Artifact
	Err      error
}

func doneResponse(id string, artifact *entity.Artifact) Response {
	return Response{Tag: entity.MessageTagExportDone, ID: id, Artifact: artifact}
}

func failedResponse(id string, err error) Response {
	return Response{Tag: entity.MessageTagExportFailed, ID: id, Err: err}
}

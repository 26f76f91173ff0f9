// Package httpapi is the HTTP boundary of the file service.
//
// Routes:
//
//	POST   /v1/files                          multipart upload (field "file")
//	GET    /v1/files?message_id=&thread_id=   list, newest first
//	POST   /v1/files/validate                 pre-flight policy check
//	GET    /v1/files/usage                    caller quota usage
//	GET    /v1/files/{id}                     metadata
//	DELETE /v1/files/{id}                     soft delete (owner, moderator or admin)
//	POST   /v1/files/{id}/presign-download    time-limited download URL
//	GET    /v1/blobs/{namespace}/{key}        locally presigned download
//	GET    /health/live, /health/ready, /metrics
//
// Everything under /v1/files needs a bearer token. Errors are JSON:
//
//	{"error": {"code": "FILE_TOO_LARGE", "message": "...", "details": {"limit": 10485760}}}
//
// Policy reason codes map to 400, except FILE_TOO_LARGE and QUOTA_EXCEEDED
// (413) and MIME_TYPE_NOT_ALLOWED (415). Storage and metadata outages are 503
// with "retryable": true.
package httpapi

package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonCameraOpen ReasonCode = "camera_open"
	ReasonCameraRead ReasonCode = "camera_read"

	ReasonRecognizerInit     ReasonCode = "recognizer_init"
	ReasonRecognizerClassify ReasonCode = "recognizer_classify"

	ReasonDisplayOpen   ReasonCode = "display_open"
	ReasonDisplayRender ReasonCode = "display_render"

	ReasonConfigInvalid ReasonCode = "config_invalid"
	ReasonMonitorServe  ReasonCode = "monitor_serve"
)

package constant

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

type JobType string

const (
	JobTypeIngest JobType = "ingest"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

type MetadataKeyMode string

const (
	// MetadataKeyTimestamped names the metadata object after the recording.
	MetadataKeyTimestamped MetadataKeyMode = "timestamped"
	// MetadataKeyFixed always writes frames_metadata.csv and overwrites the previous run.
	MetadataKeyFixed MetadataKeyMode = "fixed"
)

const (
	MediaBackendFFmpeg = "ffmpeg"
	MediaBackendOpenCV = "opencv"
)

// Unknown is stored for directory fields the API left empty.
const Unknown = "Unknown"

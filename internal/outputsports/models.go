package outputsports

// Types mirror the Output Sports public API payloads:
// https://api.outputsports.com/api/v1

type oauthTokenRequest struct {
	GrantType string `json:"grantType"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type oauthTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// seconds until expiry, sent as a string
	ExpiresIn string `json:"expiresIn"`
}

type Athlete struct {
	ID          string `json:"id"`
	ExternalID  string `json:"externalId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
}

type MetadataMetric struct {
	Name          string `json:"name"`
	Field         string `json:"field"`
	UnitOfMeasure string `json:"unitOfMeasure"`
}

type ExerciseMetadata struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	IsEnabled bool             `json:"isEnabled"`
	Type      string           `json:"type"` // Output or Custom
	Variants  []string         `json:"variants"`
	Metrics   []MetadataMetric `json:"metrics"`
}

type MetricValue struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

type Measurement struct {
	ID               string          `json:"id"`
	AthleteID        string          `json:"athleteId"`
	AthleteFirstName string          `json:"athleteFirstName"`
	AthleteLastName  string          `json:"athleteLastName"`
	ExerciseID       string          `json:"exerciseId"`
	ExerciseCategory string          `json:"exerciseCategory"`
	ExerciseType     string          `json:"exerciseType"`
	CompletedDate    string          `json:"completedDate"` // RFC 3339
	Variant          *string         `json:"variant"`
	Metrics          []MetricValue   `json:"metrics"`
	Repetitions      [][]MetricValue `json:"repetitions"`
}

type measurementsRequest struct {
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	ExerciseMetadataIDs []string `json:"exerciseMetadataIds"`
	AthleteIDs          []string `json:"athleteIds"`
}

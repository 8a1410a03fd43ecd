package screening

// Recorder observes every evaluation; kind is "health" or "unit".
type Recorder interface {
	ObserveScreening(kind string, r Result)
}

type Service struct {
	recorder Recorder
}

func NewService(recorder Recorder) *Service {
	return &Service{recorder: recorder}
}

// Health validates v and, when the form is complete, evaluates eligibility.
func (s *Service) Health(v Vitals) (Result, error) {
	if err := v.Validate().Err(); err != nil {
		return Result{}, err
	}
	r := EvaluateHealth(v)
	s.observe("health", r)
	return r, nil
}

// Unit validates u and evaluates whether the unit is usable.
func (s *Service) Unit(u UnitTest) (Result, error) {
	if err := u.Validate().Err(); err != nil {
		return Result{}, err
	}
	r := EvaluateUnit(u)
	s.observe("unit", r)
	return r, nil
}

func (s *Service) observe(kind string, r Result) {
	if s != nil && s.recorder != nil {
		s.recorder.ObserveScreening(kind, r)
	}
}

package i18n

import (
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	apperrors "github.com/caremesh/complex-api/pkg/errors"
)

// Formatter wraps stable error codes with localized text. Presentation
// only: no business logic depends on it.
type Formatter struct {
	bundle *goi18n.Bundle
}

func NewFormatter() *Formatter {
	bundle := goi18n.NewBundle(language.English)

	bundle.AddMessages(language.English,
		&goi18n.Message{ID: string(apperrors.CodeComplexNotFound), Other: "Complex not found"},
		&goi18n.Message{ID: string(apperrors.CodeTargetComplexNotFound), Other: "Target complex not found"},
		&goi18n.Message{ID: string(apperrors.CodeTargetComplexInactive), Other: "Target complex is not active"},
		&goi18n.Message{ID: string(apperrors.CodeTransferRequired), Other: "Complex has active clinics; choose a target complex to transfer them to"},
		&goi18n.Message{ID: string(apperrors.CodeClinicNotInSource), Other: "One or more clinics do not belong to the source complex"},
		&goi18n.Message{ID: string(apperrors.CodeInvalidIdentifier), Other: "Invalid identifier"},
		&goi18n.Message{ID: string(apperrors.CodeInvalidStatus), Other: "Invalid status"},
		&goi18n.Message{ID: string(apperrors.CodeInternal), Other: "Internal server error"},
	)

	bundle.AddMessages(language.Arabic,
		&goi18n.Message{ID: string(apperrors.CodeComplexNotFound), Other: "المجمع غير موجود"},
		&goi18n.Message{ID: string(apperrors.CodeTargetComplexNotFound), Other: "المجمع المستهدف غير موجود"},
		&goi18n.Message{ID: string(apperrors.CodeTargetComplexInactive), Other: "المجمع المستهدف غير نشط"},
		&goi18n.Message{ID: string(apperrors.CodeTransferRequired), Other: "يحتوي المجمع على عيادات نشطة؛ اختر مجمعاً مستهدفاً لنقلها إليه"},
		&goi18n.Message{ID: string(apperrors.CodeClinicNotInSource), Other: "عيادة واحدة أو أكثر لا تنتمي إلى المجمع المصدر"},
		&goi18n.Message{ID: string(apperrors.CodeInvalidIdentifier), Other: "معرّف غير صالح"},
		&goi18n.Message{ID: string(apperrors.CodeInvalidStatus), Other: "حالة غير صالحة"},
		&goi18n.Message{ID: string(apperrors.CodeInternal), Other: "خطأ داخلي في الخادم"},
	)

	return &Formatter{bundle: bundle}
}

// Localize resolves a code in the requested language (an Accept-Language
// value); unmatched languages and unknown codes fall back to the supplied
// default text.
func (f *Formatter) Localize(lang string, code apperrors.Code, fallback string) string {
	localizer := goi18n.NewLocalizer(f.bundle, lang)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{MessageID: string(code)})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"calore-bot/internal/nutrition"
)

const personaPrompt = "You are CALORE Bot. Respond in Thai with a detailed, structured nutrition report. " +
	"If USDA/retrieval data is available, use it. If not, provide a clearly-labeled ESTIMATE " +
	"based on common recipes WITHOUT asking follow-ups or apologizing. Include:\n" +
	"1) พลังงานต่อ 100 กรัม และต่อ 1 ที่เสิร์ฟ (ช่วงค่าประมาณ)\n" +
	"2) โปรตีน ไขมัน คาร์บ (และถ้าคาดได้ ใส่ น้ำตาล ใยอาหาร โซเดียม)\n" +
	"3) หมายเหตุสมมติฐานสูตรทั่วไป (เช่น ข้าว ~180–200 g, น้ำมัน ~1 ช้อนโต๊ะ)\n" +
	"4) คำแนะนำย่อเพื่อปรับแคลอรี่/สุขภาพ\n" +
	"Keep it factual and organized with bullet points."

const groundedSystemPrompt = "You are a nutrition assistant. Use only the given CONTEXT. " +
	"Answer briefly with numeric facts in the requested language " +
	"(per 100 g, per serving if present)."

const unknownValue = "unknown"

var clarifications = map[string]string{
	"thai": "ขอโทษนะครับ/ค่ะ ตอนนี้ยังระบุชื่ออาหารไม่ได้ " +
		"ช่วยบอกชื่อเมนูให้ชัดเจนหน่อยได้ไหมครับ/คะ " +
		"เช่น “ผัดไทย 1 จาน” หรือ “อกไก่ย่าง 150 กรัม”?",
	"english": "Sorry, I couldn't tell which dish you mean. " +
		"Could you name the dish more clearly, " +
		"e.g. “1 plate of pad thai” or “150 g grilled chicken breast”?",
}

func clarification(language string) string {
	if msg, ok := clarifications[strings.ToLower(language)]; ok {
		return msg
	}
	return clarifications["english"]
}

const serviceUnavailable = "(LLM unavailable) The nutrition assistant cannot reach its language model right now. Please try again later."

// contextBlock renders the facts handed to the model. Every line is always
// present; a nutrient the database did not report is written as unknown.
func contextBlock(record *nutrition.Record) string {
	return fmt.Sprintf(
		"Name: %s\nCalories: %s kcal per 100g\nProtein: %s g\nFat: %s g\nCarbohydrate: %s g\n",
		record.Name,
		formatValue(record.EnergyKcal),
		formatValue(record.ProteinG),
		formatValue(record.FatG),
		formatValue(record.CarbohydrateG),
	)
}

func formatValue(v *float64) string {
	if v == nil {
		return unknownValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func groundedQuestion(block, query, language string) string {
	return fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s\nAnswer in %s.", block, query, language)
}

// responseLanguage answers in English whenever the question contains a Latin
// letter, otherwise in the configured default.
func responseLanguage(query, defaultLanguage string) string {
	for _, r := range query {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return "English"
		}
	}
	return defaultLanguage
}

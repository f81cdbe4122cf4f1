package content

// sampleJSON is a well-formed generator response used across tests.
const sampleJSON = `{
  "explanation": "Photosynthesis is how plants make food from sunlight.\n\nLeaves take in carbon dioxide and release oxygen.",
  "mcqs": [
    {"question": "What do plants need for photosynthesis?", "options": ["A. Sunlight", "B. Sand", "C. Salt", "D. Plastic"], "answer": "A"},
    {"question": "Which gas do plants release?", "options": ["A. Carbon dioxide", "B. Oxygen", "C. Helium", "D. Neon"], "answer": "B"},
    {"question": "Where does photosynthesis mostly happen?", "options": ["A. Roots", "B. Flowers", "C. Leaves", "D. Seeds"], "answer": "C"}
  ]
}`
